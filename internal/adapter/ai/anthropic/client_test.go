package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ak" || r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("headers = %v", r.Header)
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.System == "" || req.Messages[0].Content != "prompt" {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"intent\":"},{"type":"tool_use"},{"type":"text","text":"\"help\"}"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "ak", BaseURL: srv.URL, HTTPClient: srv.Client()}, nil)
	got, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"intent":"help"}` {
		t.Errorf("Complete() = %q", got)
	}
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("x-api-key") {
		case "overloaded":
			w.WriteHeader(529)
			w.Write([]byte(`{"type":"error"}`))
		default:
			w.Write([]byte(`{"content":[]}`))
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "overloaded", BaseURL: srv.URL}, nil)
	if _, err := c.Complete(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "status 529") {
		t.Errorf("error = %v", err)
	}

	c = NewClient(Config{APIKey: "empty", BaseURL: srv.URL}, nil)
	if _, err := c.Complete(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "no content") {
		t.Errorf("error = %v", err)
	}

	c = NewClient(Config{}, nil)
	if _, err := c.Complete(context.Background(), "x"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("error = %v", err)
	}
}
