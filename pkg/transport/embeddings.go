package transport

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
)

// embeddingsRequest is the inbound embeddings payload. Input accepts a
// string, an array of strings, an array of token ids, or an array of
// token-id arrays.
type embeddingsRequest struct {
	Model          string          `json:"model"`
	Input          embeddingsInput `json:"input"`
	EncodingFormat string          `json:"encoding_format,omitempty"`
}

type embeddingsInput struct {
	Texts    []string
	TokenIDs [][]int
}

func (e *embeddingsInput) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		e.Texts = []string{text}
		return nil
	}
	var texts []string
	if err := json.Unmarshal(data, &texts); err == nil {
		e.Texts = texts
		return nil
	}
	var ids []int
	if err := json.Unmarshal(data, &ids); err == nil {
		e.TokenIDs = [][]int{ids}
		return nil
	}
	var batches [][]int
	if err := json.Unmarshal(data, &batches); err == nil {
		e.TokenIDs = batches
		return nil
	}
	return api.NewValidationError("input", "input must be a string, an array of strings, or token id arrays")
}

type embeddingsResponse struct {
	Object string          `json:"object"`
	Data   []embeddingRow  `json:"data"`
	Model  string          `json:"model"`
	Usage  embeddingsUsage `json:"usage"`
}

// embeddingRow carries one embedded input. Embedding is a []float64 or,
// for encoding_format=base64, a base64 string of little-endian float32s.
type embeddingRow struct {
	Object    string `json:"object"`
	Index     int    `json:"index"`
	Embedding any    `json:"embedding"`
}

type embeddingsUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// handleEmbeddings serves POST /embeddings.
func (g *Gateway) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsRequest
	if !g.decodeBody(w, r, &req) {
		return
	}

	texts := req.Input.Texts
	if len(req.Input.TokenIDs) > 0 {
		if g.tokenizer == nil {
			WriteError(w, api.NewValidationError("input", "token id input is not supported"))
			return
		}
		for _, ids := range req.Input.TokenIDs {
			text, err := g.tokenizer.Decode(ids, req.Model)
			if err != nil {
				WriteError(w, api.NewValidationError("input", "decoding token ids: "+err.Error()))
				return
			}
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		WriteError(w, api.NewValidationError("input", "input must not be empty"))
		return
	}

	resp, err := g.client(r).Embeddings(r.Context(), texts, g.cfg.EmbeddingsModel)
	if err != nil {
		WriteError(w, err)
		return
	}

	out := embeddingsResponse{
		Object: "list",
		Model:  req.Model,
		Data:   make([]embeddingRow, 0, len(resp.Data)),
	}
	if out.Model == "" {
		out.Model = g.cfg.EmbeddingsModel
	}
	for _, row := range resp.Data {
		var vector any = row.Embedding
		if req.EncodingFormat == "base64" {
			vector = encodeBase64Vector(row.Embedding)
		}
		out.Data = append(out.Data, embeddingRow{
			Object:    "embedding",
			Index:     row.Index,
			Embedding: vector,
		})
		if row.Usage != nil {
			out.Usage.PromptTokens += row.Usage.PromptTokens
		}
	}
	out.Usage.TotalTokens = out.Usage.PromptTokens

	writeJSON(w, http.StatusOK, out)
}

// encodeBase64Vector packs a vector as little-endian float32 bytes,
// base64-encoded, the layout OpenAI clients expect for
// encoding_format=base64.
func encodeBase64Vector(vector []float64) string {
	buf := bytes.NewBuffer(make([]byte, 0, 4*len(vector)))
	for _, v := range vector {
		binary.Write(buf, binary.LittleEndian, math.Float32bits(float32(v)))
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
