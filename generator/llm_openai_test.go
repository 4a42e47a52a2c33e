package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func decodeChatRequest(t *testing.T, r *http.Request) chatRequest {
	t.Helper()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Errorf("decode request: %v", err)
	}
	return req
}

func chunk(content string) string {
	delta := "{}"
	if content != "" {
		b, _ := json.Marshal(map[string]string{"content": content})
		delta = string(b)
	}
	return fmt.Sprintf(`data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4.1","choices":[{"index":0,"delta":%s}]}`+"\n\n", delta)
}

func drain(s FragmentStream) []string {
	defer s.Close()
	var out []string
	for s.Next() {
		out = append(out, s.Current())
	}
	return out
}

var testCfg = GenConfig{Model: "gpt-4.1", Temperature: 0.3}

func TestOpenAILLM_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		req := decodeChatRequest(t, r)
		if req.Model != "gpt-4.1" || req.Temperature != 0.3 || req.Stream {
			t.Errorf("unexpected request %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.Messages[1].Content != "transcript" {
			t.Errorf("user content = %q", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4.1",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"## A\n## B\n"}}]}`)
	}))
	defer srv.Close()

	llm := NewOpenAILLM(Credentials{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	got, err := llm.Complete(context.Background(), testCfg, BuildOutlinePrompt("transcript"))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "## A\n## B\n" {
		t.Errorf("Complete = %q", got)
	}
}

func TestOpenAILLM_CompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4.1","choices":[]}`)
	}))
	defer srv.Close()

	llm := NewOpenAILLM(Credentials{APIKey: "sk-test", BaseURL: srv.URL})
	if _, err := llm.Complete(context.Background(), testCfg, BuildOutlinePrompt("t")); err != ErrEmptyChoices {
		t.Errorf("err = %v, want ErrEmptyChoices", err)
	}
}

func TestOpenAILLM_NoRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"upstream down","type":"server_error"}}`)
	}))
	defer srv.Close()

	llm := NewOpenAILLM(Credentials{APIKey: "sk-test", BaseURL: srv.URL})
	if _, err := llm.Complete(context.Background(), testCfg, BuildOutlinePrompt("t")); err == nil {
		t.Fatal("expected error")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestOpenAILLM_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeChatRequest(t, r)
		if !req.Stream {
			t.Error("stream flag not set")
		}
		if !strings.Contains(req.Messages[0].Content, "「Examples」") {
			t.Errorf("system prompt missing heading: %q", req.Messages[0].Content)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4.1","choices":[{"index":0,"delta":{"role":"assistant"}}]}`+"\n\n")
		fmt.Fprint(w, chunk("Hello"))
		fmt.Fprint(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4.1","choices":[]}`+"\n\n")
		fmt.Fprint(w, chunk(", world"))
		fmt.Fprint(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4.1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	llm := NewOpenAILLM(Credentials{APIKey: "sk-test", BaseURL: srv.URL})
	s := llm.Stream(context.Background(), testCfg, BuildDetailPrompt("t", "Examples"))
	got := drain(s)
	if strings.Join(got, "|") != "Hello|, world" {
		t.Errorf("fragments = %q", got)
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err = %v", err)
	}
}

func TestOpenAILLM_StreamErrorMidway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, chunk("partial"))
		fmt.Fprint(w, `data: {"error":{"message":"rate limited"}}`+"\n\n")
		fmt.Fprint(w, chunk("lost"))
	}))
	defer srv.Close()

	llm := NewOpenAILLM(Credentials{APIKey: "sk-test", BaseURL: srv.URL})
	s := llm.Stream(context.Background(), testCfg, BuildDetailPrompt("t", "H"))
	got := drain(s)
	if strings.Join(got, "") != "partial" {
		t.Errorf("fragments = %q, want only the fragment before the error", got)
	}
	if err := s.Err(); err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Err = %v", err)
	}
}

func TestOpenAILLM_StreamRequestFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	llm := NewOpenAILLM(Credentials{APIKey: "bad", BaseURL: srv.URL})
	s := llm.Stream(context.Background(), testCfg, BuildDetailPrompt("t", "H"))
	if got := drain(s); len(got) != 0 {
		t.Errorf("fragments = %q, want none", got)
	}
	if s.Err() == nil {
		t.Error("expected error")
	}
}

func TestAgent_DetailWrapsStageError(t *testing.T) {
	m := &MockLLM{Details: map[string][]string{"H": {"a"}}, FailAfter: map[string]int{"H": 1}}
	agent, err := NewAgent(m, testCfg)
	if err != nil {
		t.Fatal(err)
	}
	s := agent.Detail(context.Background(), "t", "H")
	drain(s)
	se, ok := s.Err().(*StageError)
	if !ok || se.Stage != StageDetail || se.Heading != "H" {
		t.Errorf("Err = %#v", s.Err())
	}
}
