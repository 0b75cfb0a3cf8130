// Package session decides when the device context, render target and
// pipeline cache built for one script can be reused by the next.
//
// A Manager keeps at most one of each. Acquire compares the script's
// device requirements and framebuffer format with what is currently held
// and rebuilds only what changed: new requirements replace everything, a
// new format replaces the window and its pipeline cache, and a matching
// request reuses all three.
//
// In external mode the context wraps a device owned by the embedder. It is
// treated as compatible with every request and is never rebuilt.
package session
