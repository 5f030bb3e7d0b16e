// Package auth authenticates operator requests to the admin surface with
// HS256 bearer tokens.
package auth
