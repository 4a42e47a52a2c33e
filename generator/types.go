package generator

import (
	"fmt"
	"slices"
)

// DefaultBaseURL 未指定 base url 时使用的公共端点。
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultTemperature 与界面滑块的初始值一致。
const DefaultTemperature = 0.7

// Models 可选模型列表（封闭集合，可由配置覆盖）。
var Models = []string{
	"pplx-claude-sonnet-4-20250514",
	"gemini-2.5-pro",
	"gpt-4.1",
}

// Credentials 只在构造客户端时使用，运行结束即丢弃。
type Credentials struct {
	APIKey  string
	BaseURL string
}

// GenConfig is shared by the outline and detail stages for one run.
type GenConfig struct {
	Model       string
	Temperature float64
}

// Validate 检查模型是否在 allowed 中、温度是否在 [0,1]。allowed 为空时使用 Models。
func (c GenConfig) Validate(allowed []string) error {
	if len(allowed) == 0 {
		allowed = Models
	}
	if !slices.Contains(allowed, c.Model) {
		return fmt.Errorf("%w: model %q not in %v", ErrInvalidConfig, c.Model, allowed)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0, 1]", ErrInvalidConfig, c.Temperature)
	}
	return nil
}

// Input 一次运行的全部用户输入。
type Input struct {
	Credentials Credentials
	Config      GenConfig
	Transcript  string
	// Models 覆盖可选模型列表，为空时使用 Models。
	Models []string
}
