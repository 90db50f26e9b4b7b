// Package server implements the MCP (Model Context Protocol) server that
// exposes the stylus arm as a set of tools.
//
// The gateway creates one Server per connected client session; every
// instance shares the one arm controller and frame correlator, so protocol
// state is per-session while the physical device stays globally serialized.
//
// # Protocol
//
// Each Server speaks JSON-RPC 2.0, one message at a time through
// HandleMessage. Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - resources/list, resources/read: The arm status snapshot
//   - ping: Health check
//
// # Available Tools
//
//   - arm_connect: Open the serial port and wait for the device to settle
//   - arm_disconnect: Park the arm and close the port
//   - arm_move: Move the stylus to an absolute millimeter position
//   - arm_click: Pen-down / pen-up tap at the current position
//   - capture_frame: Grab the current camera view of the phone screen
//
// Tool arguments are validated (types and numeric ranges) before anything
// reaches the device. Outcomes are a uniform JSON summary with a success
// flag and a human-readable message; move, click, and capture attach the
// camera frame as an image content block when one is available and the
// caller did not opt out.
//
// # Error Handling
//
// Device-level failures never surface as JSON-RPC errors: they become
// success=false summaries whose messages distinguish "not connected",
// "already connected", "failed to open port", transport failures, and
// "capture unavailable". JSON-RPC errors are reserved for protocol-level
// faults (unparseable params, unknown method or tool, unknown resource).
package server
