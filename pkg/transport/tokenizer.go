package transport

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer decodes token-id embedding input back into text. The model
// name selects the vocabulary.
type Tokenizer interface {
	Decode(ids []int, model string) (string, error)
}

// TiktokenTokenizer decodes token ids with the encoding registered for
// the model, falling back to cl100k_base for unknown names since that is
// the vocabulary OpenAI embedding clients tokenize with. Encodings are
// loaded lazily and cached per model.
type TiktokenTokenizer struct {
	mu       sync.Mutex
	byModel  map[string]*tiktoken.Tiktoken
	fallback *tiktoken.Tiktoken
}

func (t *TiktokenTokenizer) Decode(ids []int, model string) (string, error) {
	enc, err := t.encoding(model)
	if err != nil {
		return "", err
	}
	return enc.Decode(ids), nil
}

func (t *TiktokenTokenizer) encoding(model string) (*tiktoken.Tiktoken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if enc, ok := t.byModel[model]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if t.fallback == nil {
			t.fallback, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return nil, fmt.Errorf("loading tokenizer: %w", err)
			}
		}
		enc = t.fallback
	}

	if t.byModel == nil {
		t.byModel = make(map[string]*tiktoken.Tiktoken)
	}
	t.byModel[model] = enc
	return enc, nil
}
