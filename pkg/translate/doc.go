// Package translate converts inbound chat-shaped requests into the
// backend's native request format. It owns the protocol-neutral message
// and tool types that the protocol packages map their wire shapes onto,
// plus the normalization passes (role mapping, message merging,
// attachment resolution) and the parameter transform shared by all
// inbound protocols.
package translate
