// Package eventlog provides the structured event stream emitted alongside
// every tool invocation and gateway lifecycle change.
//
// Events carry a kind (request, response, error, info), an action name, and
// a free-form detail string. They are written as JSON lines through zerolog
// and simultaneously fanned out to in-process subscribers, so an observer UI
// can follow device activity without scraping log output. The fan-out is an
// output contract of the server, not merely diagnostics: tests subscribe and
// assert on the sequence.
package eventlog
