package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadWriteInitRoundTrip(t *testing.T) {
	in := NewInit("/home/dev/project", []string{"--log-file", "/tmp/ra.log"})

	var buf bytes.Buffer
	if err := WriteInit(&buf, in); err != nil {
		t.Fatalf("write init: %v", err)
	}
	if buf.Bytes()[buf.Len()-1] != 0 {
		t.Fatalf("handshake missing NUL terminator")
	}

	out, err := ReadInit(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("read init: %v", err)
	}
	if out.Version != CurrentVersion || out.CWD != in.CWD || len(out.Args) != 2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestReadInitLiteralWireForm(t *testing.T) {
	wire := `{"version":1,"cwd":"/tmp","args":[]}` + "\x00"
	init, err := ReadInit(bufio.NewReader(strings.NewReader(wire)))
	if err != nil {
		t.Fatalf("read init: %v", err)
	}
	if init.CWD != "/tmp" || len(init.Args) != 0 {
		t.Fatalf("unexpected init: %+v", init)
	}
}

func TestReadInitVersionMismatch(t *testing.T) {
	wire := `{"version":2,"cwd":"/tmp","args":[]}` + "\x00"
	_, err := ReadInit(bufio.NewReader(strings.NewReader(wire)))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestReadInitUndecodableBytes(t *testing.T) {
	_, err := ReadInit(bufio.NewReader(strings.NewReader("not json\x00")))
	if !errors.Is(err, ErrInvalidInit) {
		t.Fatalf("expected ErrInvalidInit, got %v", err)
	}
}

func TestReadInitMissingTerminator(t *testing.T) {
	_, err := ReadInit(bufio.NewReader(strings.NewReader(`{"version":1}`)))
	if !errors.Is(err, ErrInvalidInit) {
		t.Fatalf("expected ErrInvalidInit on missing terminator, got %v", err)
	}
}

func TestReadInitMissingCWD(t *testing.T) {
	wire := `{"version":1,"args":[]}` + "\x00"
	_, err := ReadInit(bufio.NewReader(strings.NewReader(wire)))
	if !errors.Is(err, ErrInvalidInit) {
		t.Fatalf("expected ErrInvalidInit, got %v", err)
	}
}

func TestWriteInitRejectsInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := WriteInit(&buf, Init{Version: 3, CWD: "/tmp"})
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("invalid init must not produce output")
	}
}
