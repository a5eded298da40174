// Package gateway implements the tool call pipeline.
//
// # Pipeline
//
// A call moves through four stages, strictly in order:
//
//  1. ExtractParameters validates arguments against the tool's parameter
//     schemas and partitions them by position (path, header, body).
//  2. BuildURL / BuildRequest synthesize the outbound HTTP request from the
//     endpoint template and routed parameters.
//  3. Executor issues exactly one attempt and normalizes the response to a
//     JSON value, classifying failures by status code.
//  4. The optional response template renders the JSON to text; a render
//     failure degrades to the raw response and never fails the call.
//
// The Converter drives the stages and flattens every failure into a
// ToolCallResult value. Errors inside the pipeline are CallError values with
// stable codes; the dispatcher and protocol layers match on Code rather than
// error identity.
package gateway
