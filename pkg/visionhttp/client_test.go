package visionhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionHandler(t *testing.T, content interface{}, wantAuth string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("Authorization = %q, want %q", got, wantAuth)
		}

		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}

		resp := ChatCompletionResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestQueryStringContent(t *testing.T) {
	srv := httptest.NewServer(completionHandler(t, `{"x":1,"y":2,"width":3,"height":4}`, "Bearer test-key"))
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	// httptest URLs point at 127.0.0.1, so no key would be required; set
	// one to verify it is forwarded.
	c.requireKey = true

	answer, err := c.Query(context.Background(), "test-model", "find the subject", "aW1n")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !strings.Contains(answer, `"width":3`) {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestQueryPartListContent(t *testing.T) {
	parts := []interface{}{
		map[string]interface{}{"type": "text", "text": "the box is here"},
	}
	srv := httptest.NewServer(completionHandler(t, parts, ""))
	defer srv.Close()

	c, err := NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	answer, err := c.Query(context.Background(), "test-model", "prompt", "")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if answer != "the box is here" {
		t.Errorf("answer = %q", answer)
	}
}

func TestQueryMissingKeyForHostedEndpoint(t *testing.T) {
	c, err := NewClient("https://api.example.com", "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = c.Query(context.Background(), "m", "p", "")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestQueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, "")
	if _, err := c.Query(context.Background(), "m", "p", ""); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestQueryEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, "")
	if _, err := c.Query(context.Background(), "m", "p", ""); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c, err := NewClient("http://localhost:9000/", "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.baseURL != "http://localhost:9000" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.requireKey {
		t.Error("local URL must not require a key")
	}
}

func TestNewClientDefaultURL(t *testing.T) {
	c, err := NewClient("", "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.requireKey {
		t.Error("default local URL must not require a key")
	}
}
