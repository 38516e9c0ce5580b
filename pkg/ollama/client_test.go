package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req api.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Messages, 1) {
			assert.Len(t, req.Messages[0].Images, 1)
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   req.Model,
			Message: api.Message{Role: "assistant", Content: content},
			Done:    true,
		})
	}))
}

func image64() string {
	return base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
}

func TestLocateSubject(t *testing.T) {
	srv := chatServer(t, "```json\n{\"primary\":{\"label\":\"dog\",\"confidence\":0.8,\"box\":{\"x\":0.1,\"y\":0.2,\"w\":0.3,\"h\":0.4},},\"description\":\"a dog\"}\n```")
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api/chat", 0)
	require.NoError(t, err)

	got, err := c.LocateSubject(context.Background(), "llava", "prompt", image64())
	require.NoError(t, err)
	assert.Equal(t, "dog", got.Subject.Label)
	assert.InDelta(t, 0.3, got.Subject.Box.W, 1e-9)
	assert.Equal(t, "a dog", got.Description)
}

func TestLocateSubjectNonJSON(t *testing.T) {
	srv := chatServer(t, "I think there is a dog in the middle.")
	defer srv.Close()

	c, err := NewClient(srv.URL, 0)
	require.NoError(t, err)

	got, err := c.LocateSubject(context.Background(), "llava", "prompt", image64())
	require.NoError(t, err)
	assert.Equal(t, "non-json", got.Subject.Label)
}

func TestSimpleQuery(t *testing.T) {
	srv := chatServer(t, "a dog on grass")
	defer srv.Close()

	c, err := NewClient(srv.URL, 0)
	require.NoError(t, err)
	got, err := c.SimpleQuery(context.Background(), "llava", "what?", image64())
	require.NoError(t, err)
	assert.Equal(t, "a dog on grass", got)
}

func TestInvalidInput(t *testing.T) {
	_, err := NewClient("not a url", 0)
	assert.Error(t, err)

	c, err := NewClient("http://127.0.0.1:1", 0)
	require.NoError(t, err)
	_, err = c.SimpleQuery(context.Background(), "m", "p", "%%%")
	assert.Error(t, err)
}

func TestDefaultURL(t *testing.T) {
	c, err := NewClient("", 0)
	require.NoError(t, err)
	assert.NotNil(t, c.client)
}
