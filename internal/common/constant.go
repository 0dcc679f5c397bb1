// Package common contains shared constants and sentinel errors used across
// Thought Board components.
package common

// AuthorizationHeader is the HTTP header and gRPC metadata key that carries
// the bearer token.
const AuthorizationHeader = "authorization"

// BearerScheme is the token type returned on login and expected in the
// Authorization header.
const BearerScheme = "bearer"
