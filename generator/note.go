package generator

import (
	"slices"
	"strings"
)

// Section 单个标题的生成结果：成功时 Err 为空；失败时 Text 保留失败前已收到的片段。
type Section struct {
	Heading string
	Text    string
	Err     error
}

func (s Section) OK() bool { return s.Err == nil }

// Line 返回统一为二级标题的标题行。
func (s Section) Line() string { return HeadingLine(s.Heading) }

// Note 最终笔记。作为值在驱动循环中传递，Append 返回新值，不修改原值。
type Note struct {
	Sections []Section
}

func (n Note) Append(s Section) Note {
	return Note{Sections: append(slices.Clone(n.Sections), s)}
}

// Markdown 按顺序拼接每节：标题行、空行、详细内容、空行。
func (n Note) Markdown() string {
	var sb strings.Builder
	for _, s := range n.Sections {
		sb.WriteString(s.Line())
		sb.WriteString("\n\n")
		sb.WriteString(s.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Failed 返回生成失败的小节。
func (n Note) Failed() []Section {
	var out []Section
	for _, s := range n.Sections {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

func (n Note) Empty() bool { return len(n.Sections) == 0 }
