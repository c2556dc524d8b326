// Package api defines the wire-level vocabulary shared by every protocol
// adapter in the chatbridge gateway.
//
// It provides the uniform error envelope ({"error": {message, type, param,
// code}}) returned to clients of all three inbound protocols, typed error
// constructors carrying their HTTP status, and ID generation for the
// identifiers the gateway mints (chat completion ids, response ids, tool-use
// ids, and so on).
//
// The package has zero external dependencies beyond github.com/google/uuid
// and performs no I/O.
package api
