package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEmbed(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"data": [
			{"embedding": [0.1, 0.2, 0.3]},
			{"embedding": [0.4, 0.5, 0.6]}
		]}`)
	}))
	defer srv.Close()

	client := New("secret-key", "text-embedding-3-small", srv.URL, 3)
	vectors, err := client.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["model"] != "text-embedding-3-small" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["dimensions"] != float64(3) {
		t.Errorf("dimensions = %v", gotBody["dimensions"])
	}

	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[1][2] != 0.6 {
		t.Errorf("unexpected vector data: %v", vectors[1])
	}
}

func TestEmbed_OmitsZeroDimensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["dimensions"]; ok {
			t.Error("dimensions should be omitted when unset")
		}
		fmt.Fprint(w, `{"data": [{"embedding": [0.1]}]}`)
	}))
	defer srv.Close()

	client := New("key", "", srv.URL, 0)
	if _, err := client.Embed(context.Background(), []string{"text"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
}

func TestEmbed_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "rate limit"}}`)
	}))
	defer srv.Close()

	client := New("key", "", srv.URL, 0)
	_, err := client.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status for retry classification, got: %v", err)
	}
}

func TestEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"embedding": [0.1]}]}`)
	}))
	defer srv.Close()

	client := New("key", "", srv.URL, 0)
	if _, err := client.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error when the provider returns fewer vectors than inputs")
	}
}

func TestNew_Defaults(t *testing.T) {
	client := New("key", "", "", 0)
	if client.model != "text-embedding-3-small" {
		t.Errorf("default model = %q", client.model)
	}
	if client.baseURL != defaultBaseURL {
		t.Errorf("default baseURL = %q", client.baseURL)
	}
}

func TestName(t *testing.T) {
	if got := New("key", "", "", 0).Name(); got != "openai" {
		t.Errorf("Name() = %q", got)
	}
}
