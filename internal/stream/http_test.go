package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NitinBot001/claude-interface/internal/log"
)

func TestClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		lines := []string{
			`data: {"type":"text","text":"Hello"}`,
			`data: {"type":"text","text":", world"}`,
			`data: {"type":"usage","output_tokens":2}`,
			`data: [DONE]`,
		}
		fl := w.(http.Flusher)
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n"))
			fl.Flush()
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key", log.NewNop())
	require.NoError(t, err)

	var fulls []string
	final, err := c.Stream(context.Background(), Request{Prompt: "hi", Model: "claude-sonnet-4"},
		func(delta, full string) { fulls = append(fulls, full) })
	require.NoError(t, err)

	assert.Equal(t, "Hello, world", final)
	assert.Equal(t, []string{"Hello", "Hello, world"}, fulls)
}

func TestClient_StreamPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("first line\nsecond line\n"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", log.NewNop())
	require.NoError(t, err)

	final, err := c.Stream(context.Background(), Request{Prompt: "hi"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "first linesecond line", final)
}

func TestClient_StreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", log.NewNop())
	require.NoError(t, err)

	_, err = c.Stream(context.Background(), Request{Prompt: "hi"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestClient_StreamCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"text","text":"partial"}` + "\n"))
		w.(http.Flusher).Flush()
		<-release // stall until the client gives up
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(srv.URL, "", log.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = c.Stream(ctx, Request{Prompt: "hi"}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("", "", log.NewNop())
	require.Error(t, err)
}
