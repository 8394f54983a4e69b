// Package session owns one connection session with the media server.
//
// Ownership boundary:
// - the transport contract consumed from the media server (Transport, Sink)
// - the unbounded event queue from the transport into the control loop
// - the request channel from the control loop back into the transport
// - quit reasons (Done | Error) and retry backoff primitives
//
// The control loop passed to Run is the only reader of the event queue and
// the only writer of requests; nothing else is shared between the two sides.
package session
