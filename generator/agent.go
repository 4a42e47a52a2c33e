package generator

import (
	"context"
	"errors"
	"time"

	"chat_study_notes/metrics"
)

// Agent 负责两阶段生成：先要大纲，再逐个标题流式要详细内容。
type Agent struct {
	llm LLMClient
	cfg GenConfig
}

func NewAgent(llm LLMClient, cfg GenConfig) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm, cfg: cfg}, nil
}

// Outline 非流式请求大纲，失败时返回 *StageError。
func (a *Agent) Outline(ctx context.Context, transcript string) (string, error) {
	start := time.Now()
	outline, err := a.llm.Complete(ctx, a.cfg, BuildOutlinePrompt(transcript))
	metrics.LLMRequestDuration.WithLabelValues(string(StageOutline)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(string(StageOutline), metrics.StatusError).Inc()
		return "", &StageError{Stage: StageOutline, Err: err}
	}
	metrics.LLMRequestsTotal.WithLabelValues(string(StageOutline), metrics.StatusOK).Inc()
	return outline, nil
}

// Detail 为单个标题打开流。流内的失败通过 Err 以 *StageError 返回。
func (a *Agent) Detail(ctx context.Context, transcript, heading string) FragmentStream {
	return &instrumentedStream{
		FragmentStream: a.llm.Stream(ctx, a.cfg, BuildDetailPrompt(transcript, heading)),
		heading:        heading,
		start:          time.Now(),
	}
}

// instrumentedStream 在流结束时记录一次请求指标。
type instrumentedStream struct {
	FragmentStream
	heading  string
	start    time.Time
	finished bool
}

func (s *instrumentedStream) Next() bool {
	if s.FragmentStream.Next() {
		metrics.StreamFragmentsTotal.Inc()
		return true
	}
	if !s.finished {
		s.finished = true
		status := metrics.StatusOK
		if s.FragmentStream.Err() != nil {
			status = metrics.StatusError
		}
		metrics.LLMRequestsTotal.WithLabelValues(string(StageDetail), status).Inc()
		metrics.LLMRequestDuration.WithLabelValues(string(StageDetail)).Observe(time.Since(s.start).Seconds())
	}
	return false
}

func (s *instrumentedStream) Err() error {
	if err := s.FragmentStream.Err(); err != nil {
		return &StageError{Stage: StageDetail, Heading: s.heading, Err: err}
	}
	return nil
}
