package diagram

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ConvertOptions are passed through to the graph converter
type ConvertOptions struct {
	// OutsideMembers lists class members outside the class box
	OutsideMembers bool
	// HideEmptyMembers drops empty member compartments
	HideEmptyMembers bool
}

// RenderOptions is what every render uses
var RenderOptions = ConvertOptions{OutsideMembers: true, HideEmptyMembers: true}

// Converter turns sanitized diagram text into the renderer's input format
type Converter interface {
	Convert(ctx context.Context, text string, opts ConvertOptions) (string, error)
}

// PassthroughConverter hands the text on untouched; the client does the layout
type PassthroughConverter struct{}

// Convert implements Converter
func (PassthroughConverter) Convert(_ context.Context, text string, _ ConvertOptions) (string, error) {
	return text, nil
}

// Cache stores finished renders keyed by a digest of the raw text
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Renderer runs the sanitize, convert, expand-tabs pipeline
type Renderer struct {
	converter Converter
	cache     Cache
	ttl       time.Duration
}

// NewRenderer creates a Renderer. A nil converter means PassthroughConverter.
func NewRenderer(converter Converter) *Renderer {
	if converter == nil {
		converter = PassthroughConverter{}
	}
	return &Renderer{converter: converter}
}

// WithCache makes r remember renders in c for ttl
func (r *Renderer) WithCache(c Cache, ttl time.Duration) *Renderer {
	r.cache = c
	r.ttl = ttl
	return r
}

// Render returns the display-ready form of raw diagram text
func (r *Renderer) Render(ctx context.Context, raw string) (string, error) {
	var key string
	if r.cache != nil {
		sum := sha256.Sum256([]byte(raw))
		key = "render:" + hex.EncodeToString(sum[:])
		if out, ok := r.cache.Get(ctx, key); ok {
			return string(out), nil
		}
	}

	converted, err := r.converter.Convert(ctx, Sanitize(raw), RenderOptions)
	if err != nil {
		return "", err
	}
	out := strings.ReplaceAll(converted, "\t", "    ")

	if r.cache != nil {
		// a failed cache write only costs a re-render
		_ = r.cache.Set(ctx, key, []byte(out), r.ttl)
	}
	return out, nil
}
