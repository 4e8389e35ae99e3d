// lspmux-client is the editor-facing half of the relay: editors spawn it
// in place of the language server. It connects to the daemon, sends the
// handshake for the current working directory, then pipes its own stdio to
// the socket in both directions. Frames need no reparsing here; the daemon
// does the framing, this side is a pure byte pipe.
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/danmuck/lspmux/internal/protocol"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lspmux-client: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("connect", "127.0.0.1:27631", "daemon address")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", *addr, err)
	}
	defer conn.Close()

	// Everything after the program name goes to the language server.
	if err := protocol.WriteInit(conn, protocol.NewInit(cwd, flag.Args())); err != nil {
		return err
	}

	done := make(chan error, 2)
	go func() {
		_, err := io.Copy(conn, os.Stdin)
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.CloseWrite()
		}
		done <- err
	}()
	go func() {
		_, err := io.Copy(os.Stdout, conn)
		done <- err
	}()

	// First side to finish decides the exit; the editor owns our lifetime.
	if err := <-done; err != nil {
		return err
	}
	return nil
}
