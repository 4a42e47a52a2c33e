package generator

import (
	"context"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
type OpenAILLM struct {
	client openai.Client
}

// NewOpenAILLM builds a client bound to the key and base url (DefaultBaseURL when empty).
// Retries are disabled: every failure surfaces once.
func NewOpenAILLM(c Credentials, extra ...option.RequestOption) *OpenAILLM {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	opts = append(opts, extra...)
	return &OpenAILLM{client: openai.NewClient(opts...)}
}

func (o *OpenAILLM) params(cfg GenConfig, prompt Prompt) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(cfg.Temperature),
	}
}

func (o *OpenAILLM) Complete(ctx context.Context, cfg GenConfig, prompt Prompt) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, o.params(cfg, prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAILLM) Stream(ctx context.Context, cfg GenConfig, prompt Prompt) FragmentStream {
	return &openAIStream{stream: o.client.Chat.Completions.NewStreaming(ctx, o.params(cfg, prompt))}
}

// openAIStream 只产出带内容的 delta，role/finish_reason 帧被跳过。
type openAIStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	cur    string
}

func (s *openAIStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			s.cur = content
			return true
		}
	}
	return false
}

func (s *openAIStream) Current() string { return s.cur }

func (s *openAIStream) Err() error { return s.stream.Err() }

func (s *openAIStream) Close() error { return s.stream.Close() }
