package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/SimonStenelid/X-team/internal/config"
)

// Embedder turns post text into a fixed-dimension vector used as the
// semantic fingerprint for duplicate detection.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// New creates an Embedder from the given config.
func New(cfg *config.EmbedderConfig, apiKey string) (Embedder, error) {
	if cfg == nil {
		return &localProvider{}, nil
	}

	switch cfg.Provider {
	case "", "local":
		return &localProvider{}, nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("embedder provider openai requires an API key")
		}
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return &openaiProvider{
			apiKey: apiKey,
			model:  model,
			client: &http.Client{Timeout: 30 * time.Second},
		}, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider: %q (valid: local, openai)", cfg.Provider)
	}
}

// --- local provider ---

// localDims is the vector size of the offline fingerprint.
const localDims = 256

// localProvider is a deterministic offline embedder: bag-of-words feature
// hashing into a fixed-size L2-normalized vector. Far coarser than a real
// embedding model, but it makes near-identical texts score close to 1.0
// without any API dependency.
type localProvider struct{}

func (localProvider) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, localDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		sum := h.Sum32()
		// Sign bit keeps hash collisions from only ever adding up.
		sign := 1.0
		if sum&1 == 1 {
			sign = -1.0
		}
		vec[(sum>>1)%localDims] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

// --- OpenAI provider ---

type openaiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

type openaiRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openaiResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (o *openaiProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	body, _ := json.Marshal(openaiRequest{Model: o.model, Input: text})

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, err
	}
	if len(or.Data) == 0 {
		return nil, fmt.Errorf("empty openai embedding response")
	}
	return or.Data[0].Embedding, nil
}
