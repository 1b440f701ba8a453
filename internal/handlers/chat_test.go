package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"avatar-relay/internal/models"
	"avatar-relay/internal/services"
)

// ─── Stubs ───

type stubRelay struct {
	chunks    []string
	beforeErr error // returned before Begin
	afterErr  error // returned after the chunks were written
	panicWith interface{}
	got       models.ChatRequest
}

func (s *stubRelay) Relay(ctx context.Context, req models.ChatRequest, out services.ChunkWriter) error {
	s.got = req
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	if s.beforeErr != nil {
		return s.beforeErr
	}
	out.Begin()
	for _, c := range s.chunks {
		if err := out.WriteChunk(c); err != nil {
			return err
		}
	}
	return s.afterErr
}

func postChat(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body.Error
}

// ─── Chat handler with stub relay ───

func TestChat_StreamsPlainText(t *testing.T) {
	relay := &stubRelay{chunks: []string{"He", "llo"}}
	rr := postChat(NewChatHandler(relay).Chat, `{"message":"hi","language":"fr"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Expected text/plain, got %q", ct)
	}
	if rr.Body.String() != "Hello" {
		t.Errorf("Expected body 'Hello', got %q", rr.Body.String())
	}
	if !rr.Flushed {
		t.Error("Expected chunks to be flushed")
	}
	if relay.got.Message != "hi" || relay.got.Language != "fr" {
		t.Errorf("Unexpected request passed to relay: %+v", relay.got)
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", &services.ValidationError{Message: "Missing message"}, http.StatusBadRequest, "Missing message"},
		{"provider", &services.ProviderError{StatusCode: 503, Body: "busy"}, http.StatusInternalServerError, "LLM Error: 503 - busy"},
		{"wrapped provider", fmt.Errorf("relay: %w", &services.ProviderError{StatusCode: 401, Body: "bad key"}), http.StatusInternalServerError, "LLM Error: 401 - bad key"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postChat(NewChatHandler(&stubRelay{beforeErr: tc.err}).Chat, `{"message":"hi"}`)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON error, got %q", ct)
			}
			if got := decodeError(t, rr); got != tc.wantError {
				t.Errorf("Expected error %q, got %q", tc.wantError, got)
			}
		})
	}
}

func TestChat_ErrorAfterStreamingHasNoTrailer(t *testing.T) {
	relay := &stubRelay{chunks: []string{"par"}, afterErr: errors.New("connection reset")}
	rr := postChat(NewChatHandler(relay).Chat, `{"message":"hi"}`)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 once streaming began, got %d", rr.Code)
	}
	if rr.Body.String() != "par" {
		t.Errorf("Expected truncated body 'par', got %q", rr.Body.String())
	}
}

func TestChat_InvalidBody(t *testing.T) {
	relay := &stubRelay{}
	rr := postChat(NewChatHandler(relay).Chat, `{not json`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != "Invalid request body" {
		t.Errorf("Unexpected error %q", got)
	}
}

func TestChat_PanicBeforeStreaming(t *testing.T) {
	rr := postChat(NewChatHandler(&stubRelay{panicWith: "nil map"}).Chat, `{"message":"hi"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != "nil map" {
		t.Errorf("Unexpected error %q", got)
	}
}

// ─── Chat handler with the real relay ───

func newProvider(t *testing.T, hits *atomic.Int32, status int, lines ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		for _, l := range lines {
			fmt.Fprint(w, l)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat_EndToEnd(t *testing.T) {
	var hits atomic.Int32
	provider := newProvider(t, &hits, http.StatusOK,
		`data: {"choices":[{"delta":{"content":"He"}}]}`+"\n",
		"data: not-json\n",
		`data: {"choices":[{"delta":{"content":"llo"}}]}`+"\n",
		"data: [DONE]\n",
	)

	history := services.NewConversationHistory(services.DefaultHistoryLimit)
	relay := services.NewRelayService(services.NewLLMClient(provider.URL, "k", "m", 0), history, services.NewMarkerDetector(), nil)
	h := NewChatHandler(relay)

	rr := postChat(h.Chat, `{"message":"Say hello"}`)
	if rr.Code != http.StatusOK || rr.Body.String() != "Hello" {
		t.Fatalf("Expected 200 'Hello', got %d %q", rr.Code, rr.Body.String())
	}
	snap := history.Snapshot()
	if len(snap) != 2 || snap[0].Content != "Say hello" || snap[1].Content != "Hello" {
		t.Errorf("Unexpected history %+v", snap)
	}

	// empty message is rejected without reaching the provider
	before := hits.Load()
	rr = postChat(h.Chat, `{"message":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != "Missing message" {
		t.Errorf("Unexpected error %q", got)
	}
	rr = postChat(h.Chat, `{"language":"en"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for absent message, got %d", rr.Code)
	}
	if hits.Load() != before {
		t.Error("Provider must not be called for invalid requests")
	}
}

func TestChat_ProviderFailure(t *testing.T) {
	var hits atomic.Int32
	provider := newProvider(t, &hits, http.StatusServiceUnavailable, "upstream busy")

	history := services.NewConversationHistory(services.DefaultHistoryLimit)
	relay := services.NewRelayService(services.NewLLMClient(provider.URL, "k", "m", 0), history, services.NewMarkerDetector(), nil)

	rr := postChat(NewChatHandler(relay).Chat, `{"message":"hi"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != "LLM Error: 503 - upstream busy" {
		t.Errorf("Unexpected error %q", got)
	}
	if history.Len() != 0 {
		t.Errorf("History must be unchanged, has %d entries", history.Len())
	}
}
