package generator

// Notifier 是面向用户的输出面：状态提示和实时渲染的标题/片段。
// 调用顺序与生成顺序一致，实现无需考虑并发。
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Error(msg string, err error)
	Heading(line string)
	Fragment(text string)
}

// NopNotifier 丢弃所有输出。
type NopNotifier struct{}

func (NopNotifier) Info(string)         {}
func (NopNotifier) Success(string)      {}
func (NopNotifier) Error(string, error) {}
func (NopNotifier) Heading(string)      {}
func (NopNotifier) Fragment(string)     {}
