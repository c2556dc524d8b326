package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/chatbridge-dev/chatbridge/pkg/debug"
	"github.com/chatbridge-dev/chatbridge/pkg/observability"
)

// Client performs HTTP requests against the backend service.
//
// A Client is safe for concurrent use. Per-request credential pass-through
// is handled by WithToken, which returns a shallow copy sharing the pooled
// transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a Client for the backend at baseURL. The token is sent
// as a bearer credential on every call; timeout bounds non-streaming calls
// only.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		token:   token,
	}
}

// WithToken returns a copy of the client authenticating with the given
// token instead of the configured one. Used when client credentials are
// passed through to the backend.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Chat performs a non-streaming chat call.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (_ *ChatResponse, err error) {
	defer record("chat", time.Now(), &err)
	reqCopy := *req
	reqCopy.Stream = false

	httpResp, err := c.postJSON(ctx, "/chat/completions", &reqCopy, false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var chatResp ChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}
	if chatResp.Usage != nil {
		observability.RecordTokens(chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens)
	}

	return &chatResp, nil
}

// Stream performs a streaming chat call and returns a pull-based chunk
// stream. The HTTP client timeout is not applied because a stream can
// legitimately outlast any fixed timeout; the context controls the request
// lifetime instead. The caller must Close the stream.
func (c *Client) Stream(ctx context.Context, req *ChatRequest) (_ *ChatStream, err error) {
	defer record("stream", time.Now(), &err)
	reqCopy := *req
	reqCopy.Stream = true

	httpResp, err := c.postJSON(ctx, "/chat/completions", &reqCopy, true)
	if err != nil {
		return nil, err
	}

	return newChatStream(ctx, httpResp.Body), nil
}

// UploadFile uploads attachment bytes as a multipart form and returns the
// backend file handle.
func (c *Client) UploadFile(ctx context.Context, data []byte, filename string) (_ *FileUpload, err error) {
	defer record("upload_file", time.Now(), &err)
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to build upload form: %s", err.Error()))
	}
	if _, err := part.Write(data); err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to build upload form: %s", err.Error()))
	}
	if err := writer.WriteField("purpose", "general"); err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to build upload form: %s", err.Error()))
	}
	if err := writer.Close(); err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to build upload form: %s", err.Error()))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var upload FileUpload
	if err := json.NewDecoder(httpResp.Body).Decode(&upload); err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to parse upload response: %s", err.Error()))
	}

	return &upload, nil
}

// Embeddings embeds the given texts with the named model.
func (c *Client) Embeddings(ctx context.Context, texts []string, model string) (_ *EmbeddingsResponse, err error) {
	defer record("embeddings", time.Now(), &err)
	req := EmbeddingsRequest{Model: model, Input: texts}

	httpResp, err := c.postJSON(ctx, "/embeddings", &req, false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var embResp EmbeddingsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&embResp); err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to parse embeddings response: %s", err.Error()))
	}

	return &embResp, nil
}

// GetModels lists the models the backend serves.
func (c *Client) GetModels(ctx context.Context) (_ []Model, err error) {
	defer record("models", time.Now(), &err)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	c.authorize(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var models modelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&models); err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to parse models response: %s", err.Error()))
	}

	return models.Data, nil
}

// TokensCount returns token counts for the given texts under the named
// model.
func (c *Client) TokensCount(ctx context.Context, texts []string, model string) (_ []TokensCount, err error) {
	defer record("tokens_count", time.Now(), &err)
	req := tokensCountRequest{Model: model, Input: texts}

	httpResp, err := c.postJSON(ctx, "/tokens/count", &req, false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var counts []TokensCount
	if err := json.NewDecoder(httpResp.Body).Decode(&counts); err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to parse token count response: %s", err.Error()))
	}

	return counts, nil
}

// Close releases pooled connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// postJSON sends a JSON POST and returns the response with an open body on
// 2xx, or a typed error otherwise. Streaming requests bypass the client
// timeout and advertise text/event-stream.
func (c *Client) postJSON(ctx context.Context, path string, payload any, streaming bool) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}
	debug.Trace("backend", "request", "path", path, "body", string(body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(KindInternal, fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	c.authorize(httpReq)

	client := c.httpClient
	if streaming {
		client = &http.Client{Transport: c.httpClient.Transport}
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, mapHTTPError(httpResp)
	}
	debug.Log("backend", "response", "path", path, "status", httpResp.StatusCode)

	return httpResp, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// record tracks one RPC in the backend request metrics. Deferred with a
// pointer so the named return error is read after it is set.
func record(operation string, start time.Time, err *error) {
	status := "ok"
	if *err != nil {
		status = "error"
	}
	observability.RecordBackendRequest(operation, status, time.Since(start).Seconds())
}
