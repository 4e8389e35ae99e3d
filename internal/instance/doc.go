// Package instance owns language server process lifecycle: launching with
// piped stdio from a validated handshake, and the daemon-wide registry of
// live instances grouped by workspace key.
//
// The relay itself stays one client to one process. The registry exists so
// the daemon can report what runs where, and to reap processes when their
// client detaches; it is the only state shared across connections.
package instance
