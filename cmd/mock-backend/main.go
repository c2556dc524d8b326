// Command mock-backend runs a deterministic stand-in for the backend
// service, speaking its native wire protocol. Responses are derived from
// the request shape so gateway behavior can be exercised end to end
// without a live backend: declared functions trigger a function call,
// attachments are acknowledged, reasoning_effort produces a
// reasoning_content preamble, everything else gets plain text.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", handleChat)
	mux.HandleFunc("POST /embeddings", handleEmbeddings)
	mux.HandleFunc("POST /tokens/count", handleTokensCount)
	mux.HandleFunc("POST /files", handleFiles)
	mux.HandleFunc("GET /models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// --- Wire types ---

type message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	FunctionCall *functionCall `json:"function_call,omitempty"`
	Attachments  []string      `json:"attachments,omitempty"`
	Reasoning    string        `json:"reasoning_content,omitempty"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

type chatRequest struct {
	Model           string    `json:"model"`
	Messages        []message `json:"messages"`
	Functions       []any     `json:"functions,omitempty"`
	ReasoningEffort string    `json:"reasoning_effort,omitempty"`
	Stream          bool      `json:"stream,omitempty"`
}

type choice struct {
	Message      message `json:"message"`
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Usage   usage    `json:"usage"`
	Object  string   `json:"object"`
}

// --- Chat ---

func handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "messages must not be empty")
		return
	}

	if req.Stream {
		streamChat(w, &req)
		return
	}

	resp := classify(&req)
	resp.Model = modelOrDefault(req.Model)
	resp.Created = time.Now().Unix()
	resp.Object = "chat.completion"

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func classify(req *chatRequest) chatResponse {
	if len(req.Functions) > 0 {
		return functionResponse()
	}
	if hasAttachments(req) {
		return textResponse("Received your attachment. It looks like a small image file.", req)
	}
	return textResponse(replyFor(lastUserText(req)), req)
}

func replyFor(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "count from 1 to 5"):
		return "1, 2, 3, 4, 5"
	case strings.Contains(lower, "ping"):
		return "pong"
	default:
		return "Hello, nice day!"
	}
}

func textResponse(text string, req *chatRequest) chatResponse {
	msg := message{Role: "assistant", Content: text}
	if req.ReasoningEffort != "" {
		msg.Reasoning = "Considering how best to answer."
	}
	return chatResponse{
		Choices: []choice{{Message: msg, FinishReason: "stop"}},
		Usage:   usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func functionResponse() chatResponse {
	return chatResponse{
		Choices: []choice{{
			Message: message{
				Role: "assistant",
				FunctionCall: &functionCall{
					Name:      "get_weather",
					Arguments: map[string]any{"location": "San Francisco", "unit": "celsius"},
				},
			},
			FinishReason: "function_call",
		}},
		Usage: usage{PromptTokens: 20, CompletionTokens: 15, TotalTokens: 35},
	}
}

func streamChat(w http.ResponseWriter, req *chatRequest) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	rc := http.NewResponseController(w)
	send := func(v any) {
		data, _ := json.Marshal(v)
		fmt.Fprintf(w, "data: %s\n\n", data)
		rc.Flush()
	}

	model := modelOrDefault(req.Model)
	resp := classify(req)
	msg := resp.Choices[0].Message

	if msg.Reasoning != "" {
		send(chunk(model, map[string]any{"role": "assistant", "reasoning_content": msg.Reasoning}, nil))
	}

	if msg.FunctionCall != nil {
		send(chunk(model, map[string]any{"role": "assistant", "function_call": msg.FunctionCall}, nil))
		finish := resp.Choices[0].FinishReason
		send(chunk(model, map[string]any{}, &finish))
	} else {
		// Split the text in two so consumers see real incremental deltas.
		text := msg.Content
		mid := len(text) / 2
		send(chunk(model, map[string]any{"role": "assistant", "content": text[:mid]}, nil))
		finish := "stop"
		last := chunk(model, map[string]any{"content": text[mid:]}, &finish)
		last["usage"] = resp.Usage
		send(last)
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	rc.Flush()
}

func chunk(model string, delta map[string]any, finish *string) map[string]any {
	c := map[string]any{"index": 0, "delta": delta}
	if finish != nil {
		c["finish_reason"] = *finish
	}
	return map[string]any{
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []any{c},
	}
}

// --- Embeddings ---

func handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	type row struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
		Usage     usage     `json:"usage"`
	}
	data := make([]row, len(req.Input))
	for i, text := range req.Input {
		// A fixed-dimension vector keyed off the input length keeps the
		// output deterministic without being constant.
		v := float64(len(text))
		data[i] = row{
			Object:    "embedding",
			Index:     i,
			Embedding: []float64{v, -v / 2, 0.25},
			Usage:     usage{PromptTokens: len(strings.Fields(text))},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"model":  modelOrDefault(req.Model),
		"data":   data,
	})
}

// --- Token counting ---

func handleTokensCount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	type count struct {
		Object     string `json:"object"`
		Tokens     int    `json:"tokens"`
		Characters int    `json:"characters"`
	}
	counts := make([]count, len(req.Input))
	for i, text := range req.Input {
		counts[i] = count{
			Object:     "tokens",
			Tokens:     len(strings.Fields(text)),
			Characters: len(text),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}

// --- Files ---

func handleFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":         fmt.Sprintf("file-mock-%d", time.Now().UnixNano()),
		"bytes":      header.Size,
		"filename":   header.Filename,
		"purpose":    "general",
		"created_at": time.Now().Unix(),
	})
}

// --- Models ---

func handleModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "chat-pro", "object": "model", "owned_by": "mock"},
			{"id": "chat-lite", "object": "model", "owned_by": "mock"},
			{"id": "Embeddings", "object": "model", "owned_by": "mock"},
		},
	})
}

// --- Helpers ---

func modelOrDefault(model string) string {
	if model == "" {
		return "chat-pro"
	}
	return model
}

func lastUserText(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func hasAttachments(req *chatRequest) bool {
	for _, msg := range req.Messages {
		if len(msg.Attachments) > 0 {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": msg},
	})
}
