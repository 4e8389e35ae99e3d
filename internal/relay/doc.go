// Package relay owns the duplex frame-copy loops between one client
// connection and one language server process.
//
// Ownership boundary:
// - per-direction decode/log/encode/flush loop (CopyFrames)
// - pairing and lifetime of the two directions (Pair)
//
// Errors are never retried: framing has no resynchronization point, so a
// failed direction stays down while its sibling runs to its own end.
package relay
