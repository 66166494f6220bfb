package openai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// Embed returns one vector per text, ordered like texts.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
		Input: texts,
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, classify("embed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, invalidResponse("embed",
			fmt.Sprintf("got %d embeddings for %d inputs", len(resp.Data), len(texts)))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, invalidResponse("embed", fmt.Sprintf("unexpected embedding index %d", d.Index))
		}
		vectors[d.Index] = d.Embedding
	}

	c.logger.DebugContext(ctx, "texts embedded",
		"model", string(c.embeddingModel),
		"count", len(texts),
		"prompt_tokens", resp.Usage.PromptTokens)
	return vectors, nil
}
