// Package mcp implements the Model Context Protocol surface of the gateway.
//
// # Overview
//
// MCP (Model Context Protocol) is a standard for AI tool integration. This
// package exposes tenant-defined tools to external AI clients (like Claude
// Desktop, other LLMs, or custom applications) over JSON-RPC 2.0.
//
// # Protocol
//
// The server supports the Streamable HTTP transport on a single endpoint:
//
//   - POST /mcp - JSON-RPC requests (initialize, tools/list, tools/call)
//   - DELETE /mcp - session termination
//
// Server-initiated SSE streams are not supported; all results return inline.
//
// # Authentication
//
// Clients authenticate once at initialize:
//
//	Authorization: Bearer <token>
//
// The token resolves to a tenant, and the returned Mcp-Session-Id pins that
// tenant for every later request on the session. A session only ever sees
// its own tenant's tools.
//
// # Tool Discovery
//
// Clients call tools/list to discover available tools:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/list",
//	  "id": 1
//	}
//
// Response includes each active tool's input schema in JSON Schema format.
// Inactive tools are not listed.
//
// # Tool Execution
//
// Clients call tools/call to execute a tool:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/call",
//	  "params": {
//	    "name": "get_order",
//	    "arguments": {"order_id": "ord-123"}
//	  },
//	  "id": 2
//	}
//
// Execution failures (upstream errors, timeouts, template failures) come back
// as tool results with isError set, not as JSON-RPC protocol errors. Protocol
// errors are reserved for malformed requests and unknown methods or tools.
//
// # Architecture
//
// Components:
//
//   - Server: HTTP transport adapter with session management
//   - Handler: per-tenant JSON-RPC method dispatch over a mirrored tool set
//   - HandlerResolver: implemented by the registry to route sessions to
//     their tenant's handler
package mcp
