package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dudoxx/dudoxx-api/internal/provider"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	// DescribeImageSystemPrompt steers vision answers toward a short caption.
	DescribeImageSystemPrompt = "Describe what you see in the image in 1-2 short, simple sentences."

	visionMaxTokens = 300
)

// Complete runs a single-turn chat completion.
func (c *Client) Complete(ctx context.Context, req provider.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", provider.NewError(ProviderName, "complete", provider.ErrMalformedInput,
			errors.New("prompt cannot be empty"))
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: c.temperature,
	}
	if req.JSON {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return c.firstChoice(ctx, "complete", chatReq)
}

// DescribeImage asks the vision model about image. An empty prompt uses a
// generic question.
func (c *Client) DescribeImage(ctx context.Context, image []byte, contentType, prompt string) (string, error) {
	if len(image) == 0 {
		return "", provider.NewError(ProviderName, "describe_image", provider.ErrMalformedInput,
			errors.New("image cannot be empty"))
	}
	if prompt == "" {
		prompt = "What is in this image?"
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)
	chatReq := goopenai.ChatCompletionRequest{
		Model:     c.visionModel,
		MaxTokens: visionMaxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: DescribeImageSystemPrompt},
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: goopenai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	return c.firstChoice(ctx, "describe_image", chatReq)
}

func (c *Client) firstChoice(ctx context.Context, op string, req goopenai.ChatCompletionRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", invalidResponse(op, "no choices returned")
	}

	content := resp.Choices[0].Message.Content
	if resp.Choices[0].FinishReason == goopenai.FinishReasonContentFilter {
		return "", provider.NewError(ProviderName, op, provider.ErrMalformedInput, provider.ErrContentBlocked)
	}
	if strings.TrimSpace(content) == "" {
		return "", invalidResponse(op, "empty message content")
	}

	c.logger.DebugContext(ctx, "chat completion finished",
		"op", op,
		"model", req.Model,
		"total_tokens", resp.Usage.TotalTokens)
	return content, nil
}
