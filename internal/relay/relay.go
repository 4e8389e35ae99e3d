package relay

import (
	"bufio"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/danmuck/lspmux/internal/observability"
	"github.com/danmuck/lspmux/internal/protocol/frame"
)

// Direction tags for log correlation: recv moves client frames toward the
// process, send moves process frames back to the client.
const (
	DirRecv = "recv"
	DirSend = "send"
)

// CopyFrames moves frames from src to dst until src ends or a step fails.
// Each iteration decodes one frame, logs its id when present, re-encodes
// the identical bytes and flushes. A framing error is terminal for this
// direction only; the stream has no recovery point once misaligned, so no
// resynchronization is attempted.
//
// Returns nil on clean end of stream, otherwise the error that stopped the
// loop.
func CopyFrames(tag string, src *bufio.Reader, dst *bufio.Writer, port int, logger zerolog.Logger) error {
	limits := frame.DefaultLimits()
	for {
		fr, err := frame.ReadFrame(src, limits)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			observability.RecordRelayError(tag)
			return err
		}

		if fr.HasID() {
			logger.Info().
				Str("direction", tag).
				Int("port", port).
				RawJSON("message_id", fr.ID).
				Msg("frame")
		}

		if err := frame.WriteFrame(dst, fr); err != nil {
			observability.RecordRelayError(tag)
			return err
		}
		if err := dst.Flush(); err != nil {
			observability.RecordRelayError(tag)
			return err
		}
		observability.RecordFrameRelayed(tag)
	}
}

// Pair couples one client connection with one instance's stdio for the relay.
// The four endpoints are owned exclusively: recv owns the socket's read half
// and the process stdin, send owns the process stdout and the socket's write
// half, so the two directions need no synchronization.
type Pair struct {
	SocketRead  io.Reader
	SocketWrite io.Writer
	ProcStdin   io.Writer
	ProcStdout  io.Reader

	// Port identifies the client connection in log lines.
	Port   int
	Logger zerolog.Logger
}

// Run starts both copy loops and blocks until both have terminated. One
// direction failing does not stop the other: a half-open relay is an
// accepted state until the surviving side's own source ends.
//
// Each loop does close its own write end when it finishes, so end of
// stream propagates downstream: recv closes the process stdin (a server
// then exits on its own terms, ending send), send half-closes the socket
// when the destination supports it. Neither touches the sibling's
// endpoints. Final teardown of socket and process after Run returns is
// the caller's job.
func (p Pair) Run() {
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		p.runDirection(DirRecv, p.SocketRead, p.ProcStdin)
		closeWriteEnd(p.ProcStdin)
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		p.runDirection(DirSend, p.ProcStdout, p.SocketWrite)
		closeWriteEnd(p.SocketWrite)
	}()

	<-done
	<-done
}

// closeWriteEnd propagates end of stream to a direction's destination.
// TCP connections get a half-close so the sibling's read side survives;
// pipes get a plain close.
func closeWriteEnd(w io.Writer) {
	switch dst := w.(type) {
	case interface{ CloseWrite() error }:
		_ = dst.CloseWrite()
	case io.Closer:
		_ = dst.Close()
	}
}

func (p Pair) runDirection(tag string, src io.Reader, dst io.Writer) {
	err := CopyFrames(tag, bufio.NewReader(src), bufio.NewWriter(dst), p.Port, p.Logger)
	if err != nil {
		p.Logger.Error().
			Str("direction", tag).
			Int("port", p.Port).
			Err(err).
			Msg("relay_stopped")
		return
	}
	p.Logger.Debug().
		Str("direction", tag).
		Int("port", p.Port).
		Msg("relay_done")
}
