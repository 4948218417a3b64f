package localEmbedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/smartsort/internal/config"
)

func TestBatchEmbedding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":"list","data":[]}`))
	})
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(body.Input))
		for i := range body.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{float32(i), 0.5}, Index: i}
		}
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": body.Model})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(config.EmbeddingConfig{Host: srv.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	vectors, err := c.BatchEmbedding(context.Background(), []string{"first chunk", "second\nchunk", "third"})
	if err != nil {
		t.Fatalf("BatchEmbedding: %v", err)
	}
	if len(vectors) != 3 || len(vectors[0]) != 2 {
		t.Fatalf("vectors = %v", vectors)
	}
}

func TestPingUnreachable(t *testing.T) {
	c, err := NewClient(config.EmbeddingConfig{Host: "http://127.0.0.1:1/v1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Error("expected an error for an unreachable server")
	}
}
