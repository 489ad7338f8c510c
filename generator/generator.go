// Package generator asks Gemini to turn a screenshot into front-end code.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ContentGenerator is the slice of the genai Models service this package needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	Model       string
	Timeout     time.Duration
	MaxImageDim int
}

type Generator struct {
	models ContentGenerator
	opts   Options
	log    *zap.Logger
}

// NewGeminiClient creates the process-wide genai client. Call once at startup.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

func New(models ContentGenerator, opts Options, log *zap.Logger) *Generator {
	return &Generator{models: models, opts: opts, log: log}
}

// Generate reads the screenshot at path and returns generated source code.
// Every failure is reported as apperror.GenerationFailure.
func (g *Generator) Generate(ctx context.Context, path string, outputType models.OutputType) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperror.New(apperror.GenerationFailure, "generate.read", err)
	}

	mimeType := mimetype.Detect(data).String()
	data, mimeType = downscale(data, mimeType, g.opts.MaxImageDim)

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(injectSysPrompt(outputType)),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}

	start := time.Now()
	result, err := g.models.GenerateContent(ctx, g.opts.Model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", apperror.New(apperror.GenerationFailure, "generate.call", err)
	}

	code, err := extractText(result)
	if err != nil {
		return "", apperror.New(apperror.GenerationFailure, "generate.response", err)
	}

	g.log.Debug("generation finished",
		zap.String("model", g.opts.Model),
		zap.String("output_type", string(outputType)),
		zap.Int("image_bytes", len(data)),
		zap.Int("code_bytes", len(code)),
		zap.Duration("took", time.Since(start)),
	)

	return code, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	code := stripCodeFence(sb.String())
	if code == "" {
		return "", errors.New("empty text in response")
	}
	return code, nil
}

// stripCodeFence removes a Markdown fence wrapping the whole reply, if present.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// drop the opening fence line, including any language tag
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
