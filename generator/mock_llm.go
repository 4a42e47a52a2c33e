package generator

import (
	"context"
	"errors"
	"strings"
)

// MockLLM 一个可编排的本地实现，便于调试和测试，不调用外部模型。
//
// 零值可直接使用：大纲固定为两个标题，详细内容按行回显聊天记录。
type MockLLM struct {
	Outline    string
	OutlineErr error
	// Details 按标题给出流式片段；未配置的标题回显聊天记录。
	Details map[string][]string
	// FailAfter 让某个标题在产出 n 个片段后报错。
	FailAfter map[string]int
	StreamErr error

	CompleteCalls int
	StreamCalls   int
	Prompts       []Prompt
}

var errMockStream = errors.New("mock stream interrupted")

const mockOutline = "## 对话概览\n## 关键要点\n"

func (m *MockLLM) Complete(_ context.Context, _ GenConfig, prompt Prompt) (string, error) {
	m.CompleteCalls++
	m.Prompts = append(m.Prompts, prompt)
	if m.OutlineErr != nil {
		return "", m.OutlineErr
	}
	if m.Outline == "" {
		return mockOutline, nil
	}
	return m.Outline, nil
}

func (m *MockLLM) Stream(ctx context.Context, _ GenConfig, prompt Prompt) FragmentStream {
	m.StreamCalls++
	m.Prompts = append(m.Prompts, prompt)

	frags, ok := m.Details[prompt.Heading]
	if !ok {
		for _, line := range strings.Split(strings.TrimSpace(prompt.User), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				frags = append(frags, "- "+line+"\n")
			}
		}
	}

	s := &mockStream{ctx: ctx, frags: frags, failAt: -1}
	if n, ok := m.FailAfter[prompt.Heading]; ok {
		s.failAt = n
		s.failErr = m.StreamErr
		if s.failErr == nil {
			s.failErr = errMockStream
		}
	}
	return s
}

type mockStream struct {
	ctx     context.Context
	frags   []string
	pos     int
	cur     string
	failAt  int
	failErr error
	err     error
}

func (s *mockStream) Next() bool {
	for {
		if s.err != nil {
			return false
		}
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return false
		}
		if s.failAt >= 0 && s.pos >= s.failAt {
			s.err = s.failErr
			return false
		}
		if s.pos >= len(s.frags) {
			return false
		}
		s.cur = s.frags[s.pos]
		s.pos++
		// 空片段模拟只有 role/finish_reason 的帧
		if s.cur != "" {
			return true
		}
	}
}

func (s *mockStream) Current() string { return s.cur }
func (s *mockStream) Err() error      { return s.err }
func (s *mockStream) Close() error    { return nil }
