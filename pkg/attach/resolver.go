package attach

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vincent-petithory/dataurl"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/observability"
)

// Uploader pushes attachment bytes to the backend and returns a file
// handle. Implemented by *backend.Client.
type Uploader interface {
	UploadFile(ctx context.Context, data []byte, filename string) (*backend.FileUpload, error)
}

// Limits are the per-kind attachment size ceilings.
type Limits struct {
	MaxAudioBytes int64
	MaxImageBytes int64
	MaxTextBytes  int64
}

// DefaultLimits returns the stock size ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes: DefaultMaxAudioBytes,
		MaxImageBytes: DefaultMaxImageBytes,
		MaxTextBytes:  DefaultMaxTextBytes,
	}
}

// NoBudget disables the combined audio+image budget for a Resolve call.
const NoBudget int64 = -1

// Resolver turns attachment references (data URIs or remote URLs) into
// uploaded backend file handles.
//
// Failure handling is asymmetric: size and media-type violations and
// SSRF-blocked URLs return typed errors that abort the whole request, while
// network failures (DNS, connect, HTTP error statuses, dropped reads)
// degrade to a nil result so the message is sent without the attachment.
type Resolver struct {
	uploader   Uploader
	cache      *Cache
	httpClient *http.Client
	limits     Limits

	// validate is swapped out in tests, which fetch from loopback servers
	// the real policy rejects.
	validate func(ctx context.Context, rawURL string) (string, error)
}

// NewResolver builds a Resolver around the given uploader and cache. The
// outbound HTTP client never follows redirects on its own; every hop is
// validated explicitly.
func NewResolver(uploader Uploader, cache *Cache, limits Limits) *Resolver {
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	return &Resolver{
		uploader: uploader,
		cache:    cache,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limits:   limits,
		validate: validateRemoteURL,
	}
}

// Resolve fetches, validates and uploads one attachment reference.
// remaining is the request's remaining combined audio+image byte budget
// (NoBudget disables it). A nil, nil return means the attachment was
// skipped after a network failure.
func (r *Resolver) Resolve(ctx context.Context, rawRef, filenameHint string, remaining int64) (*UploadResult, error) {
	hash := sha256.Sum256([]byte(rawRef))
	key := hex.EncodeToString(hash[:])

	if cached, ok := r.cache.Get(key); ok {
		observability.RecordAttachmentCacheHit()
		slog.Debug("attachment found in cache", "key", key[:16])
		return &cached, nil
	}
	observability.RecordAttachmentCacheMiss()

	var (
		data        []byte
		contentType string
		kind        Kind
		err         error
	)

	if isDataURI(rawRef) {
		data, contentType, kind, err = r.resolveDataURI(rawRef, filenameHint, remaining)
	} else {
		data, contentType, kind, err = r.fetchRemote(ctx, rawRef, filenameHint, remaining)
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	filename := filenameHint
	if filename == "" {
		ext := "jpg"
		if idx := strings.LastIndex(contentType, "/"); idx >= 0 && idx+1 < len(contentType) {
			ext = contentType[idx+1:]
		}
		filename = uuid.NewString() + "." + ext
	}

	upload, err := r.uploader.UploadFile(ctx, data, filename)
	if err != nil {
		slog.Error("attachment upload failed", "error", err.Error())
		return nil, nil
	}

	result := UploadResult{
		FileID:   upload.ID,
		ByteSize: int64(len(data)),
		Kind:     kind,
	}
	r.cache.Set(key, result)
	observability.RecordUploadBytes(string(kind), int64(len(data)))
	slog.Info("attachment uploaded", "file_id", upload.ID, "kind", kind, "bytes", len(data))

	return &result, nil
}

func isDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:") && strings.Contains(ref, ";base64,")
}

// resolveDataURI validates and decodes a base64 data URI. The decoded size
// is estimated from the payload length and checked against the effective
// ceiling before any decoding happens.
func (r *Resolver) resolveDataURI(rawRef, filenameHint string, remaining int64) ([]byte, string, Kind, error) {
	header, payload, _ := strings.Cut(rawRef, ";base64,")
	mediaType := mainContentType(strings.TrimPrefix(header, "data:"))

	kind := ClassifyKind(mediaType, filenameHint)
	if kind == KindUnknown {
		return nil, "", kind, unsupportedMediaError(mediaType, filenameHint)
	}

	limit := r.effectiveLimit(kind, remaining)

	if estimated := estimateBase64Size(payload); estimated > limit {
		slog.Warn("attachment too large", "source", "base64 pre-check", "estimated", estimated, "limit", limit)
		return nil, "", kind, sizeLimitError(estimated, limit, "base64 pre-check", kind)
	}

	decoded, err := dataurl.DecodeString(rawRef)
	if err != nil {
		slog.Error("failed to decode data URI", "error", err.Error())
		return nil, "", kind, nil
	}

	if size := int64(len(decoded.Data)); size > limit {
		slog.Warn("attachment too large", "source", "base64 decode", "size", size, "limit", limit)
		return nil, "", kind, sizeLimitError(size, limit, "base64 decode", kind)
	}

	return decoded.Data, mediaType, kind, nil
}

// fetchRemote downloads an attachment over HTTP with every redirect hop
// validated against the outbound fetch policy before it is followed, a
// Content-Length pre-check, and a running byte counter during the body
// read.
func (r *Resolver) fetchRemote(ctx context.Context, rawRef, filenameHint string, remaining int64) ([]byte, string, Kind, error) {
	currentURL, err := r.validate(ctx, rawRef)
	if err != nil {
		return nil, "", KindUnknown, err
	}

	var resp *http.Response
	for hop := 0; hop <= MaxRedirects; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, currentURL, nil)
		if err != nil {
			slog.Error("failed to build attachment request", "error", err.Error())
			return nil, "", KindUnknown, nil
		}

		httpResp, err := r.httpClient.Do(req)
		if err != nil {
			slog.Error("network error downloading attachment", "error", err.Error())
			return nil, "", KindUnknown, nil
		}

		switch httpResp.StatusCode {
		case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
			http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
			location := httpResp.Header.Get("Location")
			httpResp.Body.Close()
			if location == "" {
				return nil, "", KindUnknown, api.NewDisallowedURLError("redirect without Location header")
			}
			base, err := url.Parse(currentURL)
			if err != nil {
				return nil, "", KindUnknown, api.NewDisallowedURLError("invalid URL")
			}
			next, err := url.Parse(location)
			if err != nil {
				return nil, "", KindUnknown, api.NewDisallowedURLError("invalid redirect target")
			}
			currentURL, err = r.validate(ctx, base.ResolveReference(next).String())
			if err != nil {
				return nil, "", KindUnknown, err
			}
			continue
		}
		resp = httpResp
		break
	}
	if resp == nil {
		return nil, "", KindUnknown, api.NewDisallowedURLError("too many redirects")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("HTTP error downloading attachment", "status", resp.StatusCode, "url", truncateURL(currentURL))
		return nil, "", KindUnknown, nil
	}

	contentType := mainContentType(resp.Header.Get("Content-Type"))
	kind := ClassifyKind(contentType, filenameHint)
	if kind == KindUnknown {
		return nil, "", kind, unsupportedMediaError(contentType, filenameHint)
	}

	limit := r.effectiveLimit(kind, remaining)

	if lengthHeader := resp.Header.Get("Content-Length"); lengthHeader != "" {
		if length, err := strconv.ParseInt(lengthHeader, 10, 64); err == nil && length >= 0 && length > limit {
			slog.Warn("attachment too large", "source", "content-length", "size", length, "limit", limit)
			return nil, "", kind, sizeLimitError(length, limit, "content-length", kind)
		}
	}

	var total int64
	var chunks []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > limit {
				slog.Warn("attachment too large", "source", "stream download", "size", total, "limit", limit)
				return nil, "", kind, sizeLimitError(total, limit, "stream download", kind)
			}
			chunks = append(chunks, buf[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			slog.Error("network error reading attachment body", "error", err.Error())
			return nil, "", kind, nil
		}
	}

	return chunks, contentType, kind, nil
}

func (r *Resolver) effectiveLimit(kind Kind, remaining int64) int64 {
	var limit int64
	switch kind {
	case KindAudio:
		limit = r.limits.MaxAudioBytes
	case KindImage:
		limit = r.limits.MaxImageBytes
	default:
		limit = r.limits.MaxTextBytes
	}

	if (kind == KindAudio || kind == KindImage) && remaining != NoBudget {
		budget := remaining
		if budget < 0 {
			budget = 0
		}
		if budget < limit {
			limit = budget
		}
	}
	return limit
}

// estimateBase64Size predicts the decoded byte count from the encoded
// payload length.
func estimateBase64Size(encoded string) int64 {
	value := strings.TrimSpace(encoded)
	if value == "" {
		return 0
	}
	padding := int64(len(value) - len(strings.TrimRight(value, "=")))
	return int64(len(value))*3/4 - padding
}

func sizeLimitError(actual, limit int64, source string, kind Kind) *api.APIError {
	return api.NewPayloadTooLargeError("attachments", fmt.Sprintf(
		"Attachment size limit exceeded for %s (%s): %d bytes > %d bytes",
		kind, source, actual, limit,
	))
}

func unsupportedMediaError(contentType, filename string) *api.APIError {
	if contentType == "" {
		contentType = "unknown"
	}
	if filename == "" {
		filename = "unknown"
	}
	return api.NewUnsupportedMediaError("attachments", fmt.Sprintf(
		"Unsupported attachment format. content_type=%s, filename=%s",
		contentType, filename,
	))
}

func truncateURL(u string) string {
	if len(u) <= 100 {
		return u
	}
	return u[:100] + "..."
}
