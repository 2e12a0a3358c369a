// Package tokencount estimates prompt sizes for generative model calls.
//
// It uses tiktoken-go encodings. Gemini models have no public tiktoken
// encoding, so cl100k_base serves as an approximation for them.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Counter provides thread-safe token counting.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	name := encodingName(model)

	c.mu.RLock()
	enc, ok := c.encodingCache[name]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	c.encodingCache[name] = enc
	return enc, nil
}

// encodingName maps a model id to a tiktoken encoding.
func encodingName(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "o1"):
		return "o200k_base"
	default:
		return fallbackEncoding
	}
}

// CountTokens counts the tokens of text under the encoding used for model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.encodingFor(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// Estimate counts tokens and falls back to four characters per token when
// no encoding can be loaded.
func (c *Counter) Estimate(text, model string) int {
	n, err := c.CountTokens(text, model)
	if err != nil {
		slog.Debug("token count unavailable, using estimate", slog.String("model", model), slog.Any("error", err))
		return (len(text) + 3) / 4
	}
	return n
}
