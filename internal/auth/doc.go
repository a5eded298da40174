// Package auth provides authentication for latch-gateway.
//
// # Authentication Methods
//
// The package supports two authentication methods behind one Verifier
// interface:
//
//   - JWT Tokens: Short-lived tokens signed with HS256 using the configured
//     jwt_secret. The tenant comes from the "tid" claim, the user from "sub".
//
//   - API Tokens: Long-lived credentials in the form "lgt_<id>.<secret>".
//     Only a bcrypt hash of the secret is persisted; the plaintext is shown
//     once at creation and cannot be recovered.
//
// MultiVerifier chains both so the MCP endpoint accepts either kind on the
// same Authorization header.
//
// # Identity
//
// A verified token resolves to an AuthContext{TenantID, UserID}. The tenant
// ID is the isolation boundary for the whole gateway: sessions, tool
// listings, and dispatched calls never cross it.
//
// # Context Propagation
//
// WithAuth/FromContext attach and recover the AuthContext on a request
// context for handlers that run after verification.
package auth
