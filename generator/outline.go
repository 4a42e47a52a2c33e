package generator

import (
	"regexp"
	"strings"
)

// LineKind 大纲中一行的分类。
type LineKind int

const (
	LineOther LineKind = iota
	LineHeading
)

// headingRe matches one or more '#', a whitespace run, then captures the rest of the line.
// 空白包括 Unicode 空白（全角空格 U+3000、不换行空格 U+00A0 等），\s 只覆盖 ASCII。
var headingRe = regexp.MustCompile(`^#+[\s\v\x1c-\x1f\x85\p{Z}]+(.*)$`)

// ClassifyLine 判断一行是否为 Markdown 标题，是则返回标题文本。
//
// 这不是完整的 Markdown 解析：任何以 "#"+空白 开头的行都算标题（包括误写成行首的 hashtag），
// 标题文本除去 # 与紧随的空白外原样保留。
func ClassifyLine(line string) (LineKind, string) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return LineOther, ""
	}
	return LineHeading, m[1]
}

// ExtractHeadings 按出现顺序返回大纲中所有标题，不去重；没有标题时返回空切片。
func ExtractHeadings(outline string) []string {
	headings := []string{}
	for _, line := range strings.Split(outline, "\n") {
		if kind, title := ClassifyLine(line); kind == LineHeading {
			headings = append(headings, title)
		}
	}
	return headings
}

// HeadingLine 把标题统一成二级标题，原有层级被拉平。
func HeadingLine(heading string) string {
	return "## " + heading
}
