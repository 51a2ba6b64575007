package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Source records which path produced a best-effort result.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Result is the discriminated outcome of a best-effort remote call.
// When Source is SourceFallback, Err holds the reason the remote path
// was abandoned.
type Result[T any] struct {
	Value  T
	Source Source
	Err    error
}

// Remote reports whether the value came from the remote call.
func (r Result[T]) Remote() bool {
	return r.Source == SourceRemote
}

// CallJSON makes a single best-effort request to the client and decodes the
// response into T. Any failure (transport error, non-200, undecodable
// payload) substitutes fallback() and records why. It never retries and
// never returns an error: the pipeline always produces some output.
func CallJSON[T any](ctx context.Context, client Client, logger *zap.Logger, systemPrompt, userPrompt string, fallback func() T) Result[T] {
	if logger == nil {
		logger = zap.NewNop()
	}

	text, err := client.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		logger.Warn("remote call failed, using fallback", zap.Error(err))
		return Result[T]{Value: fallback(), Source: SourceFallback, Err: err}
	}

	value, err := DecodeResponse[T](text)
	if err != nil {
		logger.Warn("remote response undecodable, using fallback", zap.Error(err))
		return Result[T]{Value: fallback(), Source: SourceFallback, Err: err}
	}

	logger.Debug("remote call succeeded")
	return Result[T]{Value: value, Source: SourceRemote}
}

// DecodeResponse decodes a model response into T. Markdown code fences are
// stripped first; the remainder must be a single well-formed JSON document.
// This replaces scanning for the first '{' and last '}', which breaks on
// braces inside string values.
func DecodeResponse[T any](text string) (T, error) {
	var value T

	cleaned := StripCodeFences(text)
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&value); err != nil {
		return value, fmt.Errorf("response is not valid JSON: %w", err)
	}

	// Trailing non-whitespace after the document means the model wrapped
	// its JSON in prose; treat that as undecodable rather than guessing.
	var extra json.RawMessage
	if err := dec.Decode(&extra); err == nil {
		return value, fmt.Errorf("response contains trailing content after JSON document")
	}

	return value, nil
}

// StripCodeFences removes a surrounding markdown code fence, if present.
func StripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the info string ("json", "javascript", ...)
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
