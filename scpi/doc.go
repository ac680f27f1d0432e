// Package scpi provides a thread-safe, validated command wrapper around one
// instrument connection.
//
// All instrument I/O in this repository funnels through the Wrapper: it
// serializes concurrent callers with a per-handle lock, validates every
// command before any bytes reach the transport, bounds response sizes, and
// guarantees resource cleanup on disconnect. SCPI instruments cannot
// multiplex command/response pairs on one connection, so two in-flight
// queries would corrupt both responses; the wrapper makes that impossible.
//
// The wrapper performs no semantic parsing of responses and never retries on
// its own. Timeouts and I/O errors surface immediately so the caller can
// decide between retry, reconnect, and abort.
package scpi
