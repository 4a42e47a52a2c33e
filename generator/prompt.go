package generator

import (
	"fmt"
	"strings"
)

// Prompt 表示发送给 LLM 的一组消息：系统指令 + 聊天记录全文。
type Prompt struct {
	System string
	User   string
	// Heading 仅 detail 阶段非空，便于 Mock 和日志区分请求。
	Heading string
}

const outlineInstruction = `你是一个非常优秀的学习笔记总结助理。
你的任务是：通读我提供的聊天记录全文，分析出对话的内在逻辑和知识体系。
然后，请以 Markdown 标题的形式（例如 ` + "`##`" + ` 或 ` + "`###`" + `），生成一个简洁的、层级分明的学习笔记大纲。
你生成的回复中，必须只包含这个 Markdown 标题大纲，不要有任何其他解释或说明文字。`

// BuildOutlinePrompt 生成大纲阶段的提示词。
func BuildOutlinePrompt(transcript string) Prompt {
	return Prompt{
		System: outlineInstruction,
		User:   transcript,
	}
}

// BuildDetailPrompt 生成单个标题的详细内容提示词，标题原样嵌入。
func BuildDetailPrompt(transcript, heading string) Prompt {
	var sb strings.Builder
	sb.WriteString("你是一个顶级的学习笔记专家。\n")
	sb.WriteString(fmt.Sprintf("你的任务是：根据我提供的聊天记录全文，以及一个特定的标题，详细总结和阐述与「%s」这个标题相关的所有内容。\n", heading))
	sb.WriteString("请你只输出和这个标题直接相关的内容，确保总结的专业、详尽、易于理解。\n")
	sb.WriteString("请使用 Markdown 格式进行输出，可以包含要点、代码块、引用等。\n")
	sb.WriteString("你的输出将直接作为笔记内容，所以不要包含任何额外的、与笔记内容无关的解释，比如“好的，这是关于xxx的总结：”。\n")

	return Prompt{
		System:  sb.String(),
		User:    transcript,
		Heading: heading,
	}
}
