// Package stream defines the response-producer contract the conversation
// engine consumes, the chunk-envelope decoding shared by producers, and
// the transient per-message broker the UI subscribes to while a response
// is in flight.
package stream

import (
	"context"
	"encoding/json"
	"strings"
)

// Request is one prompt handed to a producer.
type Request struct {
	Prompt string
	Image  string // data-URL encoded image, empty if none
	Model  string
}

// Producer streams a model response for a request. Implementations call
// onChunk for every incremental piece of text (delta plus cumulative
// full-text-so-far) and return the final full text. Cancelling ctx must
// abort the stream and return ctx's error.
type Producer interface {
	Stream(ctx context.Context, req Request, onChunk func(delta, full string)) (string, error)
}

// envelope covers the structured chunk shapes producers emit. Only text
// payloads contribute to the display; usage/metadata payloads are
// ignored, never concatenated.
type envelope struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Content json.RawMessage `json:"content"`
	Message *struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
	Delta *struct {
		Content string `json:"content"`
	} `json:"delta"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// DecodeChunk extracts display text from one raw chunk. Plain text passes
// through unchanged; JSON envelopes are unwrapped ({"type":"text"} and
// the common content/message/delta/choices shapes), and {"type":"usage"}
// metadata decodes to the empty string. Malformed JSON is treated as
// plain text rather than dropped.
func DecodeChunk(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return raw
	}

	switch env.Type {
	case "text":
		return env.Text
	case "usage":
		return ""
	}

	if env.Text != "" {
		return env.Text
	}
	if text := decodeContent(env.Content); text != "" {
		return text
	}
	if env.Message != nil {
		if text := decodeContent(env.Message.Content); text != "" {
			return text
		}
	}
	if env.Delta != nil && env.Delta.Content != "" {
		return env.Delta.Content
	}
	if len(env.Choices) > 0 {
		return env.Choices[0].Delta.Content
	}
	return ""
}

// decodeContent handles the two content encodings seen in the wild: a
// bare string, or an array of typed blocks whose text blocks concatenate.
func decodeContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var b strings.Builder
		for _, blk := range blocks {
			if blk.Type == "text" {
				b.WriteString(blk.Text)
			}
		}
		return b.String()
	}

	return ""
}
