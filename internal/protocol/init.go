package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CurrentVersion is the single handshake version this daemon understands.
// A client built against any other version is rejected before a process
// is spawned.
const CurrentVersion = 1

const maxInitBytes = 128 * 1024

var (
	ErrInvalidInit     = errors.New("protocol: invalid handshake")
	ErrVersionMismatch = errors.New("protocol: handshake version mismatch")
	ErrInitTooLarge    = errors.New("protocol: handshake too large")
)

// Init is the client->daemon session-start record: which protocol revision
// the client speaks, the extra arguments for the language server, and the
// working directory the server should run in. It is received exactly once
// per connection, consumed to launch the process, and not retained.
type Init struct {
	Version uint32   `json:"version"`
	Args    []string `json:"args"`
	CWD     string   `json:"cwd"`
}

// NewInit builds a current-version handshake for the client shim.
func NewInit(cwd string, args []string) Init {
	if args == nil {
		args = []string{}
	}
	return Init{Version: CurrentVersion, Args: args, CWD: cwd}
}

func (i Init) Validate() error {
	if i.Version != CurrentVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, i.Version, CurrentVersion)
	}
	if strings.TrimSpace(i.CWD) == "" {
		return fmt.Errorf("%w: missing cwd", ErrInvalidInit)
	}
	return nil
}

// ReadInit consumes bytes up to a single NUL terminator and decodes them as
// the handshake record. The terminator is not part of the JSON document.
// Any decode or validation failure aborts the connection before a process
// is launched.
func ReadInit(r *bufio.Reader) (Init, error) {
	raw, err := r.ReadBytes('\x00')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Init{}, fmt.Errorf("%w: stream ended before terminator", ErrInvalidInit)
		}
		return Init{}, fmt.Errorf("protocol: read handshake: %w", err)
	}
	if len(raw) > maxInitBytes {
		return Init{}, ErrInitTooLarge
	}
	raw = raw[:len(raw)-1]

	var init Init
	if err := json.Unmarshal(raw, &init); err != nil {
		return Init{}, fmt.Errorf("%w: %v", ErrInvalidInit, err)
	}
	if err := init.Validate(); err != nil {
		return Init{}, err
	}
	return init, nil
}

// WriteInit emits the handshake record followed by its NUL terminator.
func WriteInit(w io.Writer, init Init) error {
	if err := init.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(init)
	if err != nil {
		return err
	}
	payload = append(payload, '\x00')
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("protocol: write handshake: %w", err)
	}
	return nil
}
