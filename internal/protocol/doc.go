// Package protocol owns the wire contract between lspmux clients and the
// daemon.
//
// Ownership boundary:
// - the one-shot NUL-terminated JSON handshake a client sends after connect
// - frame primitives for the LSP header framing (subpackage frame)
//
// Everything past the handshake is opaque LSP traffic; the daemon never
// interprets message content beyond the frame header and a peeked id.
package protocol
