// Package transport serves the three inbound protocol surfaces of the
// chatbridge gateway over HTTP.
//
// It deserializes Chat Completions, Responses API, and Anthropic Messages
// requests, hands them to the protocol packages for translation, calls the
// backend, and serializes replies back as JSON or Server-Sent Events.
//
// # Routing
//
// Routing uses net/http with Go 1.22+ ServeMux method patterns. Every
// protocol route is registered both under /v1 and unversioned; a
// path-normalization middleware also collapses duplicated /v1 prefixes the
// way misconfigured clients produce them.
//
// # Error mapping
//
// The single table translating backend error kinds into client-visible
// HTTP statuses lives here, at the request edge. Below the edge everything
// works in terms of backend.Kind.
//
// # Middleware
//
// The middleware chain provides panic recovery, request ID assignment
// (X-Request-ID), structured logging via log/slog, the shared-secret
// bearer check, CORS (github.com/rs/cors), and Prometheus request metrics.
package transport
