package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/assemblage/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

// GenerateEmbeddings embeds all inputs with a single /api/embed request and
// returns one vector per input, in input order.
func (c *AssemblageOllamaClient) GenerateEmbeddings(
	ctx context.Context,
	inputs []string,
) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	release, err := c.limiter.Acquire(rCtx)
	if err != nil {
		return nil, err
	}
	defer release()

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: inputs,
	}

	res, err := c.Client.Embed(rCtx, req)
	if err != nil {
		return nil, err
	}

	c.Add(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	if len(res.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(res.Embeddings), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for i, v := range res.Embeddings {
		out[i] = ai.FitDimension(v, c.dimensions)
	}
	return out, nil
}
