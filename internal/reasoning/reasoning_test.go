// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meshintel/fit-engine/pkg/types"
)

// --- ParseStructured ---

type dims struct {
	Relevance  float64 `json:"relevance"`
	Quality    float64 `json:"quality"`
	Usefulness float64 `json:"usefulness"`
	Rationale  string  `json:"rationale"`
}

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    dims
		wantErr bool
	}{
		{
			name:  "clean json",
			reply: `{"relevance":0.8,"quality":0.6,"usefulness":0.4,"rationale":"ok"}`,
			want:  dims{0.8, 0.6, 0.4, "ok"},
		},
		{
			name:  "prose wrapped",
			reply: `Here is my assessment:` + "\n" + `{"relevance": 0.7, "quality": 0.5, "usefulness": 0.3, "rationale": "fine"}` + "\nHope that helps.",
			want:  dims{0.7, 0.5, 0.3, "fine"},
		},
		{
			name:  "code fenced",
			reply: "```json\n{\"relevance\":0.9,\"quality\":0.9,\"usefulness\":0.9,\"rationale\":\"strong\"}\n```",
			want:  dims{0.9, 0.9, 0.9, "strong"},
		},
		{
			name:  "trailing comma repaired",
			reply: `{"relevance":0.5,"quality":0.5,"usefulness":0.5,"rationale":"meh",}`,
			want:  dims{0.5, 0.5, 0.5, "meh"},
		},
		{
			name:  "truncated object repaired",
			reply: `{"relevance":0.4,"quality":0.4,"usefulness":0.4,"rationale":"cut off`,
			want:  dims{0.4, 0.4, 0.4, "cut off"},
		},
		{
			name:    "no json at all",
			reply:   "I cannot score this document.",
			wantErr: true,
		},
		{
			name:    "empty reply",
			reply:   "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got dims
			err := ParseStructured(tt.reply, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStructured() error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStructured() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStructured() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseStructuredNoJSONTyped(t *testing.T) {
	var got dims
	err := ParseStructured("nothing here", &got)
	var noJSON *ErrNoJSON
	if !errors.As(err, &noJSON) {
		t.Fatalf("error = %v, want *ErrNoJSON", err)
	}
}

func TestExtractObjectNestedBraces(t *testing.T) {
	reply := `{"rationale":"mentions {vague} terms","relevance":1}`
	got := extractObject(reply)
	if got != reply {
		t.Errorf("extractObject() = %q, want full object", got)
	}
}

// --- HTTPClient ---

func TestHTTPClientInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "a reply"}},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(types.ReasoningConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		Endpoint:   srv.URL,
		Model:      "test-model",
		APIKey:     "sk-test",
		MaxRetries: 1,
	})

	got, err := c.Invoke(context.Background(), "score this", 0.2)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if got != "a reply" {
		t.Errorf("Invoke() = %q, want %q", got, "a reply")
	}
}

func TestHTTPClientInvokeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewHTTPClient(types.ReasoningConfig{
				HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second},
				Endpoint:   srv.URL,
				MaxRetries: 1,
			})
			if _, err := c.Invoke(context.Background(), "p", 0); err == nil {
				t.Fatal("Invoke() error = nil, want non-nil")
			}
		})
	}
}

func TestMockClientScript(t *testing.T) {
	m := &MockClient{Replies: []string{"first", "second"}}
	ctx := context.Background()

	for i, want := range []string{"first", "second", "second"} {
		got, err := m.Invoke(ctx, "p", 0)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != want {
			t.Errorf("call %d = %q, want %q", i, got, want)
		}
	}
	if m.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", m.Calls())
	}
}
