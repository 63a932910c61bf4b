package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// fakeLive answers a setup + one turn with the given text chunks.
func fakeLive(t *testing.T, chunks ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "gk" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()

		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var setup setupMessage
		if err := json.Unmarshal(data, &setup); err != nil || setup.Setup.GenerationConfig.ResponseModalities[0] != "TEXT" {
			t.Errorf("bad setup %s", data)
		}
		conn.Write(ctx, websocket.MessageText, []byte(`{"setupComplete":{}}`))

		_, data, err = conn.Read(ctx)
		if err != nil {
			return
		}
		if !strings.Contains(string(data), "clock me in") {
			t.Errorf("turn = %s", data)
		}
		for i, chunk := range chunks {
			frame, _ := json.Marshal(map[string]interface{}{
				"serverContent": map[string]interface{}{
					"modelTurn":    map[string]interface{}{"parts": []map[string]string{{"text": chunk}}},
					"turnComplete": i == len(chunks)-1,
				},
			})
			conn.Write(ctx, websocket.MessageText, frame)
		}
		// keep the connection open until the client hangs up
		conn.Read(ctx)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestLiveClient_Complete(t *testing.T) {
	srv := fakeLive(t, `{"intent":"clock_in",`, `"entities":{},"confidence":0.9}`)
	defer srv.Close()

	c := NewLiveClient(Config{APIKey: "gk", URL: wsURL(srv)}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := c.Complete(ctx, "transcript: clock me in")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"intent":"clock_in","entities":{},"confidence":0.9}` {
		t.Errorf("Complete() = %q", got)
	}
}

func TestLiveClient_DialFailure(t *testing.T) {
	srv := fakeLive(t)
	defer srv.Close()

	c := NewLiveClient(Config{APIKey: "wrong", URL: wsURL(srv)}, nil)
	if _, err := c.Complete(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "dial") {
		t.Errorf("Complete() error = %v", err)
	}
}

func TestLiveClient_NoAPIKey(t *testing.T) {
	c := NewLiveClient(Config{}, nil)
	if _, err := c.Complete(context.Background(), "x"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Complete() error = %v", err)
	}
}
