// Package arm drives the mechanical stylus arm through its legacy HTTP
// command API.
//
// The arm is a single physical device behind a stateful, single-threaded
// HTTP endpoint: every command is a GET request carrying a serial-port
// selector, a resource handle, and a command string, and the device must
// never see two overlapping commands on one handle. The package therefore
// splits into three layers:
//
//   - State: the one process-wide record of connection status, resource
//     handle, position, and pen depth. The hardware reports nothing back, so
//     position is tracked client-side and reset on connect and disconnect.
//   - Client: a stateless helper that builds command URLs, fires the GET,
//     and returns the response body. Responses are JSON-quoted strings or
//     bare numerics; Unquote strips exactly one pair of surrounding quotes.
//   - Controller: the connect/disconnect/move/click state machine. It holds
//     a mutex across each complete operation (request, mandatory delay,
//     state mutation), which makes device access globally serialized across
//     all protocol sessions.
//
// # Timing contract
//
// The hardware needs a settle delay after the port opens before it accepts
// motion commands, a gap between the park and close commands during
// disconnect, and a hold between pen-down and pen-up. These delays are part
// of the command protocol, not best-effort politeness; Timing carries them
// so tests can shrink them to zero.
//
// # Failure behavior
//
// Operations never panic and never leave the pen down: a failed pen-down is
// always followed by a pen-up attempt, and disconnect resets State
// unconditionally even when the hardware calls fail. A stale handle after a
// failed close is worse than a forgotten one.
package arm
