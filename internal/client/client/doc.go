// Package client talks to the accounts HTTP API and keeps the CLI session
// in a local SQLite state file.
//
// HTTPClient maps every endpoint of the API to a method. Failed calls
// return *APIError carrying the status, the machine-readable code and the
// server message; 401 responses also match ErrUnauthorized and transport
// failures match ErrUnavailable via errors.Is.
//
// OpenState opens the state file and applies the embedded goose
// migrations; SessionStore persists the email and token of the last login.
package client
