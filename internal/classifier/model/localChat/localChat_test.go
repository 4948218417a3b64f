package localChat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/smartsort/internal/config"
)

func newModelServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"llama3.1","object":"model"}]}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Model != "llama3.1" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "llama3.1",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": answer},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPingAndGenerate(t *testing.T) {
	srv := newModelServer(t, `{"category":"Invoice","confidence":0.9}`)
	p, err := NewProvider(config.ModelConfig{Host: srv.URL + "/v1/", Name: "llama3.1", Temperature: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	out, err := p.Generate(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"category":"Invoice","confidence":0.9}` {
		t.Errorf("answer = %q", out)
	}
}

func TestPingFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewProvider(config.ModelConfig{Host: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Ping(context.Background()); err == nil {
		t.Error("expected an error for a 503")
	}
}
