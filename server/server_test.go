package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/brief/internal/models"
)

type mockClient struct {
	mu       sync.Mutex
	response func(prompt string) (string, error)
}

func (m *mockClient) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.response(prompt)
}

func newTestServer(response func(prompt string) (string, error)) *httptest.Server {
	s := newServerWithClient(&mockClient{response: response}, Config{
		Workers:   1,
		RateLimit: 1000,
	})
	return httptest.NewServer(s.routes())
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeOutput(t *testing.T, resp *http.Response) models.FinalOutput {
	t.Helper()
	defer resp.Body.Close()

	var output models.FinalOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&output))
	return output
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(func(string) (string, error) { return "ok", nil })
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSummarizeEndpoint(t *testing.T) {
	ts := newTestServer(func(string) (string, error) { return "a tidy summary", nil })
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/summarize", processRequest{Text: "some input text"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	output := decodeOutput(t, resp)
	assert.Equal(t, "a tidy summary", output.Summary)
	assert.False(t, output.Partial)
}

func TestSummarizeEndpoint_ModeOverride(t *testing.T) {
	var prompts []string
	var mu sync.Mutex
	ts := newTestServer(func(prompt string) (string, error) {
		mu.Lock()
		prompts = append(prompts, prompt)
		mu.Unlock()
		return "short summary", nil
	})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/summarize", processRequest{Text: "some input", Mode: "short"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "in 2-3 sentences")
}

func TestFAQEndpoint(t *testing.T) {
	ts := newTestServer(func(prompt string) (string, error) {
		if !strings.Contains(prompt, "frequently asked questions") {
			return "", fmt.Errorf("expected FAQ prompt, got %q", prompt)
		}
		return "Q: What is covered?\nA: The input text.", nil
	})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/faq", processRequest{Text: "some input text"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	output := decodeOutput(t, resp)
	require.Len(t, output.FAQItems, 1)
	assert.Equal(t, "What is covered?", output.FAQItems[0].Question)
	assert.Equal(t, "The input text.", output.FAQItems[0].Answer)
}

func TestFAQEndpoint_CharCapFromConfig(t *testing.T) {
	s := newServerWithClient(&mockClient{response: func(string) (string, error) {
		return "Q: First question?\nA: Short.\nQ: Second question?\nA: Also short.", nil
	}}, Config{
		Workers:     1,
		RateLimit:   1000,
		MaxFAQChars: 30,
	})
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/faq", processRequest{Text: "some input text"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	output := decodeOutput(t, resp)
	require.Len(t, output.FAQItems, 1)
	assert.Equal(t, "First question?", output.FAQItems[0].Question)
}

func TestProcessEndpoint_BadRequests(t *testing.T) {
	ts := newTestServer(func(string) (string, error) { return "unused", nil })
	defer ts.Close()

	tests := []struct {
		name string
		body processRequest
	}{
		{"empty text", processRequest{Text: "   "}},
		{"unknown mode", processRequest{Text: "text", Mode: "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/summarize", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestProcessEndpoint_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(func(string) (string, error) { return "unused", nil })
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/summarize")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestProcessEndpoint_AllChunksFailed(t *testing.T) {
	ts := newTestServer(func(string) (string, error) {
		return "", fmt.Errorf("model exploded")
	})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/summarize", processRequest{Text: "some input text"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestWebSocketSummarize(t *testing.T) {
	ts := newTestServer(func(string) (string, error) { return "ws summary", nil })
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Message{Type: "summarize", Content: "some input text"}))

	var sawProgress bool
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))

		switch msg.Type {
		case "progress":
			sawProgress = true
		case "result":
			data, err := json.Marshal(msg.Data)
			require.NoError(t, err)
			var output models.FinalOutput
			require.NoError(t, json.Unmarshal(data, &output))
			assert.Equal(t, "ws summary", output.Summary)
			assert.True(t, sawProgress)
			return
		case "error":
			t.Fatalf("unexpected error message: %s", msg.Content)
		}
	}
}

func TestWebSocketUnknownType(t *testing.T) {
	ts := newTestServer(func(string) (string, error) { return "unused", nil })
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Message{Type: "translate", Content: "text"}))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
}

func TestModelsEndpoint(t *testing.T) {
	s := newServerWithClient(&mockClient{response: func(string) (string, error) { return "", nil }}, Config{})
	s.models = func(context.Context) ([]string, error) {
		return []string{"mistral:latest"}, nil
	}
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/models")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"mistral:latest"}, body["models"])
}
