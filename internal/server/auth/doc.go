// Package auth implements credential hashing and bearer token issuance.
//
// Hasher produces salted Argon2id hashes and verifies them (and legacy bcrypt
// hashes) in constant time. Issuer mints HS256 JWT access tokens carrying a
// subject and an expiry, and maps every verification failure onto
// common.ErrMalformedToken, common.ErrInvalidSignature or
// common.ErrTokenExpired. Authenticator ties both to a UserLookup to
// implement login without revealing whether a username exists.
package auth
