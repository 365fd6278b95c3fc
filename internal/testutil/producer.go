// Package testutil provides test doubles for the conversation engine:
// a scripted stream producer and a throwaway store constructor.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/NitinBot001/claude-interface/internal/log"
	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/stream"
)

// ScriptedProducer is a stream.Producer with deterministic responses for
// testing. Prompts are matched against registered patterns
// (case-insensitive substring, first match wins); the reply is streamed
// in fixed-size chunks. Unmatched prompts get the fallback reply.
//
// Thread-safe for concurrent use.
type ScriptedProducer struct {
	mu       sync.Mutex
	rules    []scriptRule
	fallback string
	calls    []stream.Request

	// ChunkSize controls how many bytes each chunk carries. Zero means
	// the whole reply arrives as a single chunk.
	ChunkSize int
}

type scriptRule struct {
	pattern string
	reply   string
	err     error
	block   bool
}

// NewScriptedProducer creates a producer with the given fallback reply.
func NewScriptedProducer(fallback string) *ScriptedProducer {
	return &ScriptedProducer{fallback: fallback}
}

// Reply registers a pattern-reply pair.
func (p *ScriptedProducer) Reply(pattern, reply string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, scriptRule{pattern: strings.ToLower(pattern), reply: reply})
}

// FailWith registers a pattern whose stream fails with err after
// producing nothing.
func (p *ScriptedProducer) FailWith(pattern string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, scriptRule{pattern: strings.ToLower(pattern), err: err})
}

// Stall registers a pattern whose stream blocks until the context is
// cancelled, then returns the context error. Used to exercise
// cancellation paths.
func (p *ScriptedProducer) Stall(pattern string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, scriptRule{pattern: strings.ToLower(pattern), block: true})
}

// Calls returns a copy of every request streamed so far.
func (p *ScriptedProducer) Calls() []stream.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]stream.Request, len(p.calls))
	copy(cp, p.calls)
	return cp
}

// Stream implements stream.Producer.
func (p *ScriptedProducer) Stream(ctx context.Context, req stream.Request, onChunk func(delta, full string)) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	rule := scriptRule{reply: p.fallback}
	prompt := strings.ToLower(req.Prompt)
	for _, r := range p.rules {
		if strings.Contains(prompt, r.pattern) {
			rule = r
			break
		}
	}
	chunkSize := p.ChunkSize
	p.mu.Unlock()

	if rule.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if rule.err != nil {
		return "", rule.err
	}

	if chunkSize <= 0 {
		chunkSize = len(rule.reply)
	}
	var full strings.Builder
	for start := 0; start < len(rule.reply); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := min(start+chunkSize, len(rule.reply))
		delta := rule.reply[start:end]
		full.WriteString(delta)
		if onChunk != nil {
			onChunk(delta, full.String())
		}
	}
	return full.String(), nil
}

// TempStore opens a store on a throwaway database under t.TempDir(),
// closed automatically when the test ends.
func TempStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir()+"/chat.db", log.NewNop())
	if err != nil {
		t.Fatalf("opening temp store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
