package generator

import (
	"context"
	"fmt"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	// Complete 非流式请求，返回第一个 choice 的完整文本。
	Complete(ctx context.Context, cfg GenConfig, prompt Prompt) (string, error)
	// Stream 流式请求。建立连接失败时返回的流为空，错误由 Err 给出。
	Stream(ctx context.Context, cfg GenConfig, prompt Prompt) FragmentStream
}

// FragmentStream is a lazy, finite, non-restartable sequence of text fragments.
//
//	for s.Next() {
//		frag := s.Current()
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
type FragmentStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// ClientFactory 根据凭据构造客户端，不发起网络请求。
type ClientFactory func(Credentials) (LLMClient, error)

// 支持的 provider
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// NewClientFactory 按 provider 选择客户端实现。
// OpenAI 兼容网关（DeepSeek、Perplexity 代理等）都走 openai，通过 base url 区分。
func NewClientFactory(provider string) (ClientFactory, error) {
	switch provider {
	case "", ProviderOpenAI:
		return func(c Credentials) (LLMClient, error) {
			return NewOpenAILLM(c), nil
		}, nil
	case ProviderMock:
		return func(Credentials) (LLMClient, error) {
			return &MockLLM{}, nil
		}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", provider)
	}
}
