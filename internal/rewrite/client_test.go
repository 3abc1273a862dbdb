package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		ollamaURL     string
		model         string
		expectError   bool
		expectedModel string
	}{
		{
			name:          "default values",
			ollamaURL:     "",
			model:         "",
			expectError:   false,
			expectedModel: DefaultModel,
		},
		{
			name:          "custom URL and model",
			ollamaURL:     "http://custom-ollama:11434",
			model:         "llama3.2",
			expectError:   false,
			expectedModel: "llama3.2",
		},
		{
			name:          "custom URL, default model",
			ollamaURL:     "http://localhost:11434",
			model:         "",
			expectError:   false,
			expectedModel: DefaultModel,
		},
		{
			name:        "invalid URL",
			ollamaURL:   "://invalid-url",
			model:       "test",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.ollamaURL, tt.model)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("Expected client but got nil")
			}
			if client.model != tt.expectedModel {
				t.Errorf("Expected model %s, got %s", tt.expectedModel, client.model)
			}
			if client.timeout != DefaultTimeout {
				t.Errorf("Expected timeout %v, got %v", DefaultTimeout, client.timeout)
			}
		})
	}
}

// fakeOllama serves a canned /api/generate response in the streaming format
// the Ollama client expects.
func fakeOllama(t *testing.T, response string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		line, _ := json.Marshal(map[string]interface{}{
			"model":    "test-model",
			"response": response,
			"done":     true,
		})
		fmt.Fprintf(w, "%s\n", line)
	}))
}

func TestSuggestActiveVoice(t *testing.T) {
	server := fakeOllama(t, "The team wrote the report.")
	defer server.Close()

	client, err := New(server.URL, "test-model")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	suggestion, err := client.SuggestActiveVoice(context.Background(), "The report was written by the team.")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if suggestion != "The team wrote the report." {
		t.Errorf("Expected active-voice rewrite, got %q", suggestion)
	}
}

func TestSuggestActiveVoiceStripsQuotes(t *testing.T) {
	server := fakeOllama(t, `"The team wrote the report."`)
	defer server.Close()

	client, err := New(server.URL, "test-model")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	suggestion, err := client.SuggestActiveVoice(context.Background(), "The report was written by the team.")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if suggestion != "The team wrote the report." {
		t.Errorf("Expected quotes stripped from rewrite, got %q", suggestion)
	}
}

func TestSuggestActiveVoiceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "model not loaded"}`)
	}))
	defer server.Close()

	client, err := New(server.URL, "test-model")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.SuggestActiveVoice(context.Background(), "The report was written by the team.")
	if err == nil {
		t.Fatal("Expected error from failing server")
	}
}

func TestSuggestActiveVoiceConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client, err := New(server.URL, "test-model")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.SuggestActiveVoice(context.Background(), "The report was written by the team.")
	if err == nil {
		t.Fatal("Expected connection error")
	}
}
