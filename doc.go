// Package auth implements credential and session lifecycle management for
// the coolkeep member backend: bcrypt credential verification, stateless
// HS256 bearer tokens, an in-memory revocation overlay so logout and
// password resets take effect before a token's natural expiry, and a
// single-active-token password reset flow backed by bun.
package auth
