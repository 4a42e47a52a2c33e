package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"chat_study_notes/generator"
)

func TestNotifier_SplitsOutput(t *testing.T) {
	var out, notices bytes.Buffer
	n := New(&out, &notices)

	n.Info("working")
	n.Heading("## A")
	n.Fragment("hello ")
	n.Fragment("world")
	n.Error("「B」失败", errors.New("boom"))
	n.Success("done")

	body := out.String()
	if !strings.Contains(body, "## A") || !strings.Contains(body, "hello world") {
		t.Errorf("body = %q", body)
	}
	if strings.Contains(body, "working") || strings.Contains(body, "done") {
		t.Errorf("notices leaked into body: %q", body)
	}
	for _, want := range []string{"working", "「B」失败", "done"} {
		if !strings.Contains(notices.String(), want) {
			t.Errorf("notices missing %q: %q", want, notices.String())
		}
	}
}

func TestNotifier_DrivesSession(t *testing.T) {
	var out, notices bytes.Buffer
	m := &generator.MockLLM{
		Outline: "## One\n## Two\n",
		Details: map[string][]string{"One": {"first"}, "Two": {"second"}},
	}
	factory := func(generator.Credentials) (generator.LLMClient, error) { return m, nil }
	sess := generator.NewSession("c1", generator.Input{
		Credentials: generator.Credentials{APIKey: "k"},
		Config:      generator.GenConfig{Model: generator.Models[0], Temperature: 0.5},
		Transcript:  "hi",
	}, factory)

	if _, err := sess.Run(context.Background(), New(&out, &notices)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	body := out.String()
	if strings.Index(body, "One") > strings.Index(body, "first") ||
		strings.Index(body, "first") > strings.Index(body, "Two") ||
		strings.Index(body, "Two") > strings.Index(body, "second") {
		t.Errorf("output out of order: %q", body)
	}
}
