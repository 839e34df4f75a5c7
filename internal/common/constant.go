// Package common contains shared constants and sentinel errors used across
// account service components.
package common

// AuthTokenHeaderName is the HTTP header carrying the session token on
// authenticated requests.
const AuthTokenHeaderName = "X-Auth-Token"
