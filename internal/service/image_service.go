package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

const (
	describeImagePrompt = "What is in this image?"
	refineSystemPrompt  = "Add 1-2 simple details about color, size, or action to the description. Keep it brief and natural."
	refinePrompt        = "Add a few more simple details to this description: %s"
)

// ImageService describes uploaded images.
type ImageService interface {
	// Describe captions image and then enriches the caption with a second pass.
	// contentType must be an accepted image type.
	Describe(ctx context.Context, image []byte, contentType string) (*domain.ImageDescription, error)
}

type imageService struct {
	describer provider.ImageDescriber
	chat      provider.ChatCompleter
	logger    *slog.Logger
}

var _ ImageService = (*imageService)(nil)

// NewImageService creates an ImageService.
func NewImageService(describer provider.ImageDescriber, chat provider.ChatCompleter, logger *slog.Logger) (ImageService, error) {
	if describer == nil {
		return nil, errors.New("image describer cannot be nil")
	}
	if chat == nil {
		return nil, errors.New("chat completer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &imageService{describer: describer, chat: chat, logger: logger.With("component", "image_service")}, nil
}

func (s *imageService) Describe(ctx context.Context, image []byte, contentType string) (*domain.ImageDescription, error) {
	if err := domain.DescribableImageTypes.Check(contentType); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image", domain.ErrEmptyContent)
	}

	caption, err := s.describer.DescribeImage(ctx, image, contentType, describeImagePrompt)
	if err != nil {
		return nil, NewServiceError("image", "describe", err)
	}

	refined, err := s.chat.Complete(ctx, provider.ChatRequest{
		System: refineSystemPrompt,
		Prompt: fmt.Sprintf(refinePrompt, strings.TrimSpace(caption)),
	})
	if err != nil {
		return nil, NewServiceError("image", "refine", err)
	}

	s.logger.DebugContext(ctx, "image described", "bytes", len(image), "content_type", contentType)
	return &domain.ImageDescription{Description: strings.TrimSpace(refined)}, nil
}
