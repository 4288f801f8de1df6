// Package broadcast implements the relay's fan-out engine using the actor pattern.
//
// The Broadcaster owns the registry of live session writers. All registry access goes
// through a single goroutine + command channel (no mutexes), so join, leave and the
// fan-out iteration are serialized and every broadcast sees the registry at one
// consistent instant. Per-session writer goroutines absorb slow clients; a full send
// buffer evicts the client instead of stalling the fan-out.
package broadcast
