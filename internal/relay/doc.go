// Package relay implements the TCP side of the broadcast relay: the listening
// server with its accept loop, the per-connection session read loop, and the
// global connection limiter.
package relay
