package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zweadfx/assist"
	"github.com/zweadfx/assist/internal/testutils"
	httpadapter "github.com/zweadfx/assist/pkg/adapters/http"
	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	eng, err := assist.New(assist.Collaborators{
		Classifier:  &testutils.StubClassifier{Result: ports.Classification{Label: "skill", Confidence: 0.9}},
		Retriever:   &testutils.StubRetriever{Evidence: testutils.SomeEvidence("drills.md", 0.9)},
		Synthesizer: &testutils.StubSynthesizer{Text: "routine"},
	})
	require.NoError(t, err)

	server, err := httpadapter.NewServer(eng)
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAskEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/ask", assist.Request{
		Question: "how do I improve my crossover",
		Profile:  map[string]any{"skill_level": "beginner", "available_time_min": 30},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env domain.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	require.NotNil(t, env.Data)
	assert.Equal(t, "routine", env.Data.Text)
	assert.NotEmpty(t, env.Meta.ConversationID)
}

func TestAskEndpointRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	t.Run("malformed json", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/v1/ask", "application/json", bytes.NewReader([]byte("{nope")))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty question", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/v1/ask", assist.Request{Question: ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var env domain.Envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		assert.False(t, env.Success)
		assert.Equal(t, domain.CodeInvalidRequest, env.Error.Code)
	})
}

func TestConversationEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/ask", assist.Request{
		Question: "crossover drills",
		Profile:  map[string]any{"skill_level": "beginner", "available_time_min": 30},
	})
	var env domain.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	convID := env.Meta.ConversationID

	listResp, err := http.Get(ts.URL + "/v1/conversations")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var ids []string
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&ids))
	assert.Contains(t, ids, convID)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/conversations/"+convID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
}

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t)

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("info", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/info")
		require.NoError(t, err)
		defer resp.Body.Close()

		var info map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		assert.Equal(t, "assist-http", info["app"])
		assert.Equal(t, "1.0.0", info["api_version"])
	})

	t.Run("openapi spec", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/openapi.yaml")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/yaml", resp.Header.Get("Content-Type"))
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
