package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chat_study_notes/logger"
	"chat_study_notes/metrics"
)

// State 一次运行所处的阶段。
type State string

const (
	StateIdle      State = "idle"
	StateOutlining State = "outlining"
	StateDetailing State = "detailing"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
)

// Session 持有一次笔记生成的输入和进度。每次运行都从空白开始，不复用。
type Session struct {
	ID         string
	Input      Input
	State      State
	Outline    string
	Headings   []string
	Note       Note
	CreatedAt  time.Time
	FinishedAt time.Time

	factory ClientFactory
}

// NewSession 创建 session，尚未发起任何请求。
func NewSession(id string, in Input, factory ClientFactory) *Session {
	return &Session{
		ID:        id,
		Input:     in,
		State:     StateIdle,
		CreatedAt: time.Now(),
		factory:   factory,
	}
}

// CheckInput 校验前置条件：先 API Key，再聊天记录，最后模型与温度。
func CheckInput(in Input) error {
	if in.Credentials.APIKey == "" {
		return &StageError{Stage: StagePrecondition, Err: ErrMissingAPIKey}
	}
	if in.Transcript == "" {
		return &StageError{Stage: StagePrecondition, Err: ErrMissingTranscript}
	}
	if err := in.Config.Validate(in.Models); err != nil {
		return &StageError{Stage: StagePrecondition, Err: err}
	}
	return nil
}

// PreconditionNotice 返回前置条件错误对应的提示文案。
func PreconditionNotice(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "请输入你的 API Key！"
	case errors.Is(err, ErrMissingTranscript):
		return "请输入聊天记录！"
	default:
		return fmt.Sprintf("生成配置无效：%v", causeOf(err))
	}
}

// Run 依次生成大纲、逐个标题流式生成详细内容，返回最终笔记。
//
// 前置条件不满足时不发起任何请求，session 停留在 idle；大纲失败时进入 failed，不生成任何小节。
// 单个标题失败只记录在对应 Section 中，循环继续。
func (s *Session) Run(ctx context.Context, n Notifier) (Note, error) {
	if n == nil {
		n = NopNotifier{}
	}
	ctx = logger.WithContext(ctx, logger.SessionIDKey, s.ID)

	if err := CheckInput(s.Input); err != nil {
		n.Error(PreconditionNotice(err), err)
		logger.Warn(ctx, "precondition failed", "error", err)
		metrics.RunsTotal.WithLabelValues(string(StateIdle)).Inc()
		return Note{}, err
	}

	client, err := s.factory(s.Input.Credentials)
	if err != nil {
		return Note{}, s.fail(ctx, n, &StageError{Stage: StageOutline, Err: err})
	}
	agent, err := NewAgent(client, s.Input.Config)
	if err != nil {
		return Note{}, s.fail(ctx, n, &StageError{Stage: StageOutline, Err: err})
	}

	s.State = StateOutlining
	n.Info("🧠 AI 正在为你生成大纲...")
	logger.Info(ctx, "generating outline", "model", s.Input.Config.Model, "temperature", s.Input.Config.Temperature)

	outline, err := agent.Outline(ctx, s.Input.Transcript)
	if err != nil {
		return Note{}, s.fail(ctx, n, err)
	}
	s.Outline = outline
	s.Headings = ExtractHeadings(outline)
	n.Success("大纲生成完毕！开始填充详细内容...")
	logger.Info(ctx, "outline ready", "headings", len(s.Headings))

	s.State = StateDetailing
	note := Note{}
	for _, heading := range s.Headings {
		if err := ctx.Err(); err != nil {
			s.Note = note
			return note, s.fail(ctx, n, err)
		}
		note = note.Append(s.detail(ctx, agent, heading, n))
		s.Note = note
	}

	s.State = StateComplete
	s.FinishedAt = time.Now()
	metrics.RunsTotal.WithLabelValues(string(StateComplete)).Inc()
	n.Success("🎉 笔记生成完毕！")
	logger.Info(ctx, "note complete", "sections", len(note.Sections), "failed", len(note.Failed()))
	return note, nil
}

// detail 排空一个标题的流，片段按到达顺序转发并累加。
func (s *Session) detail(ctx context.Context, agent *Agent, heading string, n Notifier) Section {
	ctx = logger.WithContext(ctx, logger.HeadingKey, heading)
	n.Heading(HeadingLine(heading))

	stream := agent.Detail(ctx, s.Input.Transcript, heading)
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		frag := stream.Current()
		n.Fragment(frag)
		sb.WriteString(frag)
	}

	sec := Section{Heading: heading, Text: sb.String(), Err: stream.Err()}
	if sec.Err != nil {
		n.Error(fmt.Sprintf("生成「%s」的详细内容失败：%v", heading, causeOf(sec.Err)), sec.Err)
		logger.Warn(ctx, "detail failed", "error", sec.Err, "partial_bytes", len(sec.Text))
	} else {
		logger.Debug(ctx, "detail done", "bytes", len(sec.Text))
	}
	return sec
}

func (s *Session) fail(ctx context.Context, n Notifier, err error) error {
	s.State = StateFailed
	s.FinishedAt = time.Now()
	metrics.RunsTotal.WithLabelValues(string(StateFailed)).Inc()
	msg := fmt.Sprintf("生成失败：%v", causeOf(err))
	if StageOf(err) == StageOutline {
		msg = fmt.Sprintf("生成大纲失败：%v", causeOf(err))
	}
	n.Error(msg, err)
	logger.Error(ctx, "run failed", err)
	return err
}
