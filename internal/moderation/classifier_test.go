package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanVerdict = `[{"part":"title","flagged":false,"reasons":[],"intent":"report","flagged_text":[]},
{"part":"description","flagged":false,"reasons":[],"intent":"report","flagged_text":[]},
{"part":"content","flagged":false,"reasons":[],"intent":"report","flagged_text":[]}]`

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict(cleanVerdict)
	require.NoError(t, err)
	assert.True(t, v.Safe)
	assert.Len(t, v.Parts, 3)

	fenced := "```json\n" + `[{"part":"title","flagged":false},{"part":"content","flagged":true,"reasons":["violence"],"intent":"praise","flagged_text":["x"]}]` + "\n```"
	v, err = ParseVerdict(fenced)
	require.NoError(t, err)
	assert.False(t, v.Safe)
	assert.Equal(t, "flagged content", v.Reason)
	assert.Equal(t, []string{"violence"}, v.Parts[1].Reasons)

	_, err = ParseVerdict("I cannot help with that")
	assert.Error(t, err)
	_, err = ParseVerdict("[]")
	assert.Error(t, err)
}

func fakeCompletions(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClassifier_Classify(t *testing.T) {
	srv := fakeCompletions(t, http.StatusOK, cleanVerdict)
	c := NewOpenAIClassifier("test-key", "", srv.URL+"/v1")

	v, err := c.Classify(context.Background(), Submission{Title: "t", Description: "d", Content: sampleDoc})
	require.NoError(t, err)
	assert.True(t, v.Safe)
}

func TestOpenAIClassifier_EmptyShortCircuits(t *testing.T) {
	c := NewOpenAIClassifier("test-key", "", "http://127.0.0.1:1/v1")

	v, err := c.Classify(context.Background(), Submission{Title: "t", Description: "d", Content: `{"blocks":[]}`})
	require.NoError(t, err)
	assert.True(t, v.Safe)
	assert.Equal(t, "Empty content", v.Reason)
}

func TestOpenAIClassifier_UpstreamFailure(t *testing.T) {
	srv := fakeCompletions(t, http.StatusInternalServerError, "")
	c := NewOpenAIClassifier("test-key", "", srv.URL+"/v1")

	_, err := c.Classify(context.Background(), Submission{Title: "t", Description: "d", Content: "body"})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeExternalService))
}

func TestOpenAIClassifier_MalformedOutput(t *testing.T) {
	srv := fakeCompletions(t, http.StatusOK, "sure, here you go")
	c := NewOpenAIClassifier("test-key", "", srv.URL+"/v1")

	_, err := c.Classify(context.Background(), Submission{Title: "t", Description: "d", Content: "body"})
	assert.True(t, models.IsCode(err, models.CodeExternalService))
}
