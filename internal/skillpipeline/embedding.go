package skillpipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"strings"
	"time"
)

// LocalEmbedder is the on-device delegate an Azure-style embedding skill
// falls back to when resourceUri uses the local:// scheme, mirroring an
// embedding provider's Embed contract.
type LocalEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingExecutor implements the Azure-style embedding behavior of
// §4.7: posts to an external endpoint, or delegates to Local when
// resourceUri has the local:// scheme.
type EmbeddingExecutor struct {
	Local      LocalEmbedder
	HTTPClient *http.Client
}

// NewEmbeddingExecutor wires local as the local:// delegate, falling back
// to a deterministic hash-based embedder (no network, no model download)
// when local is nil.
func NewEmbeddingExecutor(local LocalEmbedder) *EmbeddingExecutor {
	if local == nil {
		local = staticLocalEmbedder{}
	}
	return &EmbeddingExecutor{Local: local}
}

func (e *EmbeddingExecutor) Execute(ctx context.Context, inputs map[string]any, params map[string]any) (map[string]any, []string, error) {
	text, _ := inputs["text"].(string)
	if strings.TrimSpace(text) == "" {
		return nil, []string{"text input is empty; no embedding produced"}, nil
	}

	resourceURI, _ := inputs["resourceUri"].(string)
	if resourceURI == "" {
		resourceURI, _ = params["resourceUri"].(string)
	}

	if strings.HasPrefix(resourceURI, "local://") {
		vec, err := e.Local.Embed(ctx, text)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding: local delegate: %w", err)
		}
		return map[string]any{"embedding": float32SliceToAny(vec)}, nil, nil
	}

	if resourceURI == "" {
		return nil, nil, fmt.Errorf("embedding: resourceUri is required for a non-local provider")
	}
	deploymentID, _ := inputs["deploymentId"].(string)
	if deploymentID == "" {
		deploymentID, _ = params["deploymentId"].(string)
	}
	if deploymentID == "" {
		return nil, nil, fmt.Errorf("embedding: deploymentId is required for a non-local provider")
	}

	return e.postRemote(ctx, resourceURI, deploymentID, text)
}

func (e *EmbeddingExecutor) postRemote(ctx context.Context, resourceURI, deploymentID, text string) (map[string]any, []string, error) {
	client := e.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	body, _ := json.Marshal(map[string]any{"input": text, "deploymentId": deploymentID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resourceURI, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, []string{"embedding provider returned a rate-limit response"}, nil
	}
	if resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("embedding provider returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, nil, fmt.Errorf("embedding: decoding response: %w", err)
	}
	return map[string]any{"embedding": float32SliceToAny(decoded.Embedding)}, nil, nil
}

func float32SliceToAny(v []float32) []any {
	out := make([]any, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

const staticEmbedDimensions = 128

// staticLocalEmbedder is a deterministic, hash-based fallback used when no
// on-device model is wired — no network calls, no model download.
type staticLocalEmbedder struct{}

func (staticLocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, staticEmbedDimensions)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%staticEmbedDimensions] += 1.0
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	inv := float32(1.0 / math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] *= inv
	}
	return vec, nil
}
