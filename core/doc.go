// Package core defines the wire-level domain model shared by every other
// package of the SDK:
//
//   - StreamEvent, the closed set of events produced while streaming an
//     execution (start, task start/end/stop, content, stop, error)
//   - AgentResult, the terminal outcome of an execution, with its token usage,
//     executor task logs and pending actions
//   - Parameter / Params, the ordered key/value input of list-shaped frames
//   - the error taxonomy (ValidationError, HTTPError, DecodeError)
//
// Responses from the service mix camelCase and snake_case field names.
// DecodeMap and DecodeAgentResult match fields regardless of naming
// convention, so callers never depend on the exact spelling.
package core
