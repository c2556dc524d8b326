// Package backend implements the RPC client for the upstream LLM service.
//
// The backend speaks its own native protocol: conversations are flat message
// lists with string content and optional file attachments, tools are
// "functions", and tool invocations arrive as a function_call on the
// assistant message. The client exposes the six operations the gateway
// needs — Chat, Stream, UploadFile, Embeddings, GetModels, TokensCount —
// and maps backend HTTP failures onto a fixed set of typed error kinds the
// transport layer translates into client-visible statuses.
package backend
