package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/danmuck/lspmux/internal/config"
	"github.com/danmuck/lspmux/internal/instance"
	"github.com/danmuck/lspmux/internal/observability"
	"github.com/danmuck/lspmux/internal/protocol"
	"github.com/danmuck/lspmux/internal/relay"
)

// Server owns the relay listener and the instance registry. Each accepted
// connection is handled on its own goroutine: handshake, launch, then the
// two relay directions. Connections share nothing but the registry.
type Server struct {
	cfg      config.Config
	registry *instance.Registry
	logger   zerolog.Logger
}

func New(cfg config.Config, registry *instance.Registry, logger zerolog.Logger) *Server {
	return &Server{cfg: cfg, registry: registry, logger: logger}
}

// Registry exposes the instance registry for the admin surface.
func (s *Server) Registry() *instance.Registry {
	return s.registry
}

// Run binds the relay listener and accepts until ctx is cancelled or the
// listener breaks. Benign accept errors (a peer resetting before the
// handshake) are logged and skipped; anything else is returned, because a
// broken listener cannot make progress and the process should die visibly
// for its supervisor.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if isBenignAcceptError(err) {
				s.logger.Warn().Err(err).Msg("accept_ignored")
				continue
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// handleConn drives one client from handshake to relay teardown. Any
// handshake or launch failure closes the connection without spawning
// anything further; the accept loop is never blocked.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	observability.RecordConnectionAccepted()
	port := remotePort(conn)
	s.logger.Info().Int("port", port).Str("remote", conn.RemoteAddr().String()).Msg("accepted")

	// The handshake reader carries over to the recv direction: bytes the
	// client sent right behind the NUL terminator are already buffered here.
	socketRead := bufio.NewReader(conn)

	init, err := protocol.ReadInit(socketRead)
	if err != nil {
		observability.RecordHandshakeFailure()
		s.logger.Error().Int("port", port).Err(err).Msg("handshake_failed")
		return
	}

	inst, err := instance.Launch(s.cfg.ServerPath, init)
	if err != nil {
		observability.RecordLaunchFailure()
		s.logger.Error().Int("port", port).Str("cwd", init.CWD).Err(err).Msg("launch_failed")
		return
	}
	s.registry.Track(inst)

	s.logger.Info().
		Int("port", port).
		Int("pid", inst.PID).
		Str("cwd", inst.CWD).
		Strs("args", inst.Args).
		Msg("instance_started")

	pair := relay.Pair{
		SocketRead:  socketRead,
		SocketWrite: conn,
		ProcStdin:   inst.Stdin,
		ProcStdout:  inst.Stdout,
		Port:        port,
		Logger:      s.logger,
	}
	pair.Run()

	if err := s.registry.Release(inst); err != nil {
		s.logger.Warn().Int("port", port).Int("pid", inst.PID).Err(err).Msg("instance_reap")
	}
	s.logger.Info().Int("port", port).Int("pid", inst.PID).Msg("instance_released")
}

// isBenignAcceptError matches the peer-went-away class of accept failures:
// the remote reset or aborted before we could do anything with it.
func isBenignAcceptError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ECONNRESET || errno == syscall.ECONNABORTED
	}
	return false
}

func remotePort(conn net.Conn) int {
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
