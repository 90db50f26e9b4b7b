// Package gateway is the session-multiplexed HTTP surface of the server.
//
// Two transports share one set of device layers:
//
//   - Streaming transport: POST /mcp carries one JSON-RPC message per
//     request. The Mcp-Session-Id header identifies the session; a missing
//     or unrecognized id creates a new session and the assigned id is
//     returned on the response. GET and DELETE /mcp require a known id and
//     answer 400 otherwise; DELETE tears the session down.
//   - Legacy stream transport: GET /sse opens a long-lived event stream.
//     The first event names the companion endpoint
//     (/message?sessionId=...); responses to messages posted there are
//     delivered as message events on the stream. Closing the stream, a
//     write error, or shutdown tears the session down.
//
// Every session exclusively owns a protocol server instance; teardown
// removes only the transport binding and never touches arm state or other
// sessions. GET /health reports active session counts per transport.
package gateway
