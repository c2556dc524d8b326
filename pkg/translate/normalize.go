package translate

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/chatbridge-dev/chatbridge/pkg/attach"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
)

const (
	// MaxAttachmentsPerMessage is the backend's per-message attachment cap.
	MaxAttachmentsPerMessage = 2
	// MaxAttachmentsPerRequest is the backend's per-request attachment cap.
	MaxAttachmentsPerRequest = 10
)

// Normalizer flattens inbound chat-shaped messages into the backend's
// message format: roles remapped, multi-part content joined, attachments
// resolved and capped, adjacent messages merged.
type Normalizer struct {
	resolver     *attach.Resolver
	enableImages bool

	audioImageBudget int64
}

// NewNormalizer builds a Normalizer. resolver may be nil, in which case
// attachment parts are ignored. enableImages gates image_url parts;
// file parts are always resolved when a resolver is present.
func NewNormalizer(resolver *attach.Resolver, enableImages bool) *Normalizer {
	return &Normalizer{
		resolver:         resolver,
		enableImages:     enableImages,
		audioImageBudget: attach.DefaultMaxAudioImageTotalBytes,
	}
}

// Normalize converts inbound messages to backend messages. Attachment
// resolution errors of the abort class (size, media type, disallowed URL)
// propagate; network-class failures skip the attachment.
func (n *Normalizer) Normalize(ctx context.Context, messages []Message) ([]backend.Message, error) {
	out := make([]backend.Message, 0, len(messages))
	systemSeen := false
	attachmentTotal := 0
	var audioImageUsed int64

	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = backend.RoleUser
		}
		mapped := MapRole(role, !systemSeen)
		if mapped == backend.RoleSystem {
			systemSeen = true
		}

		bm := backend.Message{Role: mapped}

		if role == "tool" {
			bm.Content = EnsureJSONObjectString(contentValue(msg.Content))
			if msg.Name != "" {
				bm.Name = ToBackendToolName(msg.Name)
			}
		} else if msg.Content.IsParts() {
			texts, attachments, used, err := n.processParts(ctx, msg.Content.Parts, audioImageUsed)
			if err != nil {
				return nil, err
			}
			bm.Content = strings.Join(texts, "\n")
			bm.Attachments = attachments
			attachmentTotal += len(attachments)
			audioImageUsed = used
		} else {
			bm.Content = msg.Content.Text
		}

		if fc := functionCallFrom(msg); fc != nil {
			bm.FunctionCall = fc
		}

		out = append(out, bm)
	}

	out = mergeConsecutive(out)
	out = ensureSystemFirst(out)
	if attachmentTotal > MaxAttachmentsPerRequest {
		limitAttachments(out, MaxAttachmentsPerRequest)
	}
	out = collapseUserMessages(out)
	return out, nil
}

// functionCallFrom extracts an assistant function call. Only the first
// tool call is honored; the backend speaks single function calls.
func functionCallFrom(msg Message) *backend.FunctionCall {
	if len(msg.ToolCalls) > 0 {
		fn := msg.ToolCalls[0].Function
		return &backend.FunctionCall{
			Name:      ToBackendToolName(fn.Name),
			Arguments: parseArguments(fn.Name, fn.Arguments),
		}
	}
	if msg.FunctionCall != nil && msg.FunctionCall.Name != "" {
		return &backend.FunctionCall{
			Name:      ToBackendToolName(msg.FunctionCall.Name),
			Arguments: parseArguments(msg.FunctionCall.Name, msg.FunctionCall.Arguments),
		}
	}
	return nil
}

func parseArguments(name, raw string) any {
	if raw == "" {
		return map[string]any{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		slog.Warn("failed to parse function call arguments, keeping raw string",
			"function", name, "error", err)
		return raw
	}
	return parsed
}

func contentValue(c MessageContent) any {
	if c.IsParts() {
		return c.Parts
	}
	return c.Text
}

// processParts splits content parts into text fragments and resolved
// attachment file IDs. used carries the running audio+image byte total
// across messages of a single request.
func (n *Normalizer) processParts(ctx context.Context, parts []ContentPart, used int64) ([]string, []string, int64, error) {
	var texts []string
	var attachments []string

	for _, part := range parts {
		switch part.Type {
		case "text":
			texts = append(texts, part.Text)

		case "image_url":
			if n.resolver == nil || !n.enableImages || part.ImageURL == nil || part.ImageURL.URL == "" {
				continue
			}
			if len(attachments) >= MaxAttachmentsPerMessage {
				slog.Warn("skipping image part, per-message attachment limit reached",
					"limit", MaxAttachmentsPerMessage)
				continue
			}
			result, err := n.resolver.Resolve(ctx, part.ImageURL.URL, "", n.remainingBudget(used))
			if err != nil {
				return nil, nil, used, err
			}
			if result != nil {
				attachments = append(attachments, result.FileID)
				used = n.consumeBudget(used, result)
			}

		case "file":
			if n.resolver == nil || part.File == nil || part.File.FileData == "" {
				continue
			}
			result, err := n.resolver.Resolve(ctx, part.File.FileData, part.File.Filename, n.remainingBudget(used))
			if err != nil {
				return nil, nil, used, err
			}
			if result != nil {
				attachments = append(attachments, result.FileID)
				used = n.consumeBudget(used, result)
			}
		}
	}

	if len(attachments) > MaxAttachmentsPerMessage {
		slog.Warn("too many attachments in one message, cutting off excess",
			"count", len(attachments), "limit", MaxAttachmentsPerMessage)
		attachments = attachments[:MaxAttachmentsPerMessage]
	}

	return texts, attachments, used, nil
}

func (n *Normalizer) remainingBudget(used int64) int64 {
	remaining := n.audioImageBudget - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (n *Normalizer) consumeBudget(used int64, result *attach.UploadResult) int64 {
	if result.Kind == attach.KindAudio || result.Kind == attach.KindImage {
		used += result.ByteSize
	}
	return used
}

// mergeConsecutive joins adjacent messages with the same role into one.
// Messages carrying a function call are never merged; the call marks a
// turn boundary.
func mergeConsecutive(messages []backend.Message) []backend.Message {
	merged := make([]backend.Message, 0, len(messages))
	for _, m := range messages {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.Role == m.Role && last.FunctionCall == nil && m.FunctionCall == nil {
				last.Content = strings.TrimSpace(last.Content + "\n" + m.Content)
				last.Attachments = append(last.Attachments, m.Attachments...)
				continue
			}
		}
		merged = append(merged, m)
	}
	return merged
}

// ensureSystemFirst moves the first system message to the front of the
// conversation if it is not already there.
func ensureSystemFirst(messages []backend.Message) []backend.Message {
	if len(messages) == 0 || messages[0].Role == backend.RoleSystem {
		return messages
	}
	for i, m := range messages {
		if m.Role == backend.RoleSystem {
			system := messages[i]
			copy(messages[1:i+1], messages[:i])
			messages[0] = system
			break
		}
	}
	return messages
}

// limitAttachments trims attachments down to max across the whole request,
// keeping the newest ones. Iterates from the end so the most recent
// messages keep their attachments.
func limitAttachments(messages []backend.Message, max int) {
	count := 0
	for i := len(messages) - 1; i >= 0; i-- {
		m := &messages[i]
		if count+len(m.Attachments) > max {
			allowed := max - count
			if allowed < 0 {
				allowed = 0
			}
			slog.Warn("request attachment limit exceeded, trimming message",
				"limit", max, "kept", allowed)
			m.Attachments = m.Attachments[:allowed]
			break
		}
		count += len(m.Attachments)
	}
}

// collapseUserMessages folds runs of user messages left over after the
// merge and reorder passes into the first message of the run.
func collapseUserMessages(messages []backend.Message) []backend.Message {
	collapsed := make([]backend.Message, 0, len(messages))
	prev := -1
	var pending []string

	flush := func() {
		if prev >= 0 && len(pending) > 0 {
			collapsed[prev].Content = strings.Join(append([]string{collapsed[prev].Content}, pending...), "\n")
		}
		pending = pending[:0]
	}

	for _, m := range messages {
		if m.Role == backend.RoleUser && prev >= 0 {
			pending = append(pending, m.Content)
			continue
		}
		flush()
		collapsed = append(collapsed, m)
		if m.Role == backend.RoleUser {
			prev = len(collapsed) - 1
		} else {
			prev = -1
		}
	}
	flush()
	return collapsed
}
