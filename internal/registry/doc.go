// Package registry owns the in-memory tool index and per-tenant protocol
// handlers.
//
// The registry holds two maps: tenant -> tool ID -> Tool, and a mirrored
// tenant -> mcp.Handler keyed by tool name. Registration keeps both in sync;
// a tenant's entries are garbage-collected when its last tool is removed.
//
// Dispatch through CallTool enforces two invariants before any network I/O
// happens: the caller's tenant must own the tool, and the tool must be
// active. Both failures come back as result values with stable error codes,
// never as Go errors, so transport layers can surface them uniformly.
//
// Locks are held only to mutate the maps or clone a tool out; never across
// an upstream call.
package registry
