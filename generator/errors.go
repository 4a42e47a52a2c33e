package generator

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey     = errors.New("api key is required")
	ErrMissingTranscript = errors.New("transcript is required")
	ErrInvalidConfig     = errors.New("invalid generation config")
	ErrEmptyChoices      = errors.New("llm returned no choices")
)

// Stage 标识失败发生在哪一步。
type Stage string

const (
	StagePrecondition Stage = "precondition"
	StageOutline      Stage = "outline"
	StageDetail       Stage = "detail"
)

// StageError 包装某一步的失败原因，detail 阶段附带标题。
type StageError struct {
	Stage   Stage
	Heading string
	Err     error
}

func (e *StageError) Error() string {
	if e.Heading != "" {
		return fmt.Sprintf("%s %q: %v", e.Stage, e.Heading, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf 返回 err 链中第一个 StageError 的阶段，没有则为空。
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// causeOf 去掉 StageError 外壳，用于给用户展示原始错误信息。
func causeOf(err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}
