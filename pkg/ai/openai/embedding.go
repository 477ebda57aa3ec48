package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/ai"

	"github.com/openai/openai-go/v3"
)

const defaultDimensions = 1536

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model. Empty input returns a zero vector
// of the configured dimension instead of calling the API.
func (c *GraphOpenAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", defaultDimensions))
	if len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, dim), nil
	}

	client := c.EmbeddingClient

	start := time.Now()
	response, err := client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{string(input)},
		},
		Dimensions: openai.Int(int64(dim)),
	})
	if err != nil {
		return nil, err
	}
	duration := time.Since(start).Milliseconds()

	if len(response.Data) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(response.Data))
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  duration,
	})

	out := make([]float32, 0, len(response.Data[0].Embedding))
	for _, v := range response.Data[0].Embedding {
		out = append(out, float32(v))
	}
	return out, nil
}
