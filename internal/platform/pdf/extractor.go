// Package pdf extracts plain text from uploaded PDF documents.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dudoxx/dudoxx-api/internal/provider"
	"github.com/ledongthuc/pdf"
)

// ProviderName labels errors produced by this package.
const ProviderName = "pdf"

// Extractor reads text from PDF files on local disk.
type Extractor struct {
	logger *slog.Logger
}

var _ provider.TextExtractor = (*Extractor)(nil)

// NewExtractor returns an Extractor that logs through logger.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger.With("provider", ProviderName)}
}

// ExtractText returns the concatenated plain text of every page.
// Unreadable or corrupt files fail with provider.ErrMalformedInput.
func (e *Extractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = malformed(fmt.Errorf("corrupt pdf: %v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", malformed(err)
	}
	defer func() { _ = f.Close() }()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", malformed(err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", malformed(err)
	}

	text = sb.String()
	e.logger.DebugContext(ctx, "pdf text extracted",
		"pages", reader.NumPage(),
		"text_length", len(text))
	return text, nil
}

func malformed(err error) error {
	if err == nil {
		err = errors.New("unreadable pdf")
	}
	return provider.NewError(ProviderName, "extract_text", provider.ErrMalformedInput, err)
}
