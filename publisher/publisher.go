package publisher

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	// NoteFilename 下载文件名固定。
	NoteFilename = "学习笔记.md"
	MarkdownMIME = "text/markdown"
	HTMLMIME     = "text/html"
)

// Config 决定笔记文件写到哪里、是否额外导出 HTML。
type Config struct {
	Dir  string
	HTML bool
}

// Artifact describes the files written for one note.
type Artifact struct {
	Filename string
	Path     string
	HTMLPath string
	Bytes    int
}

// Publisher writes the final note as a downloadable file.
type Publisher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Publisher and makes sure the output directory exists.
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Publisher{cfg: cfg, logger: logger}, nil
}

// Publish 写出 Markdown（以及可选的 HTML），内容原样保存。
func (p *Publisher) Publish(ctx context.Context, markdown string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	art := Artifact{
		Filename: NoteFilename,
		Path:     filepath.Join(p.cfg.Dir, NoteFilename),
		Bytes:    len(markdown),
	}
	if err := os.WriteFile(art.Path, []byte(markdown), 0o644); err != nil {
		return Artifact{}, err
	}
	p.logger.Info("note written", "path", art.Path, "bytes", art.Bytes)

	if !p.cfg.HTML {
		return art, nil
	}
	page, err := RenderHTML(markdown)
	if err != nil {
		return Artifact{}, err
	}
	art.HTMLPath = filepath.Join(p.cfg.Dir, HTMLFilename())
	if err := os.WriteFile(art.HTMLPath, []byte(page), 0o644); err != nil {
		return Artifact{}, err
	}
	p.logger.Info("html written", "path", art.HTMLPath)
	return art, nil
}

// HTMLFilename 与 Markdown 同名，扩展名为 .html。
func HTMLFilename() string {
	return strings.TrimSuffix(NoteFilename, filepath.Ext(NoteFilename)) + ".html"
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

func mdToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// RenderBody 只渲染笔记正文片段，供页面内联展示。
func RenderBody(markdown string) (string, error) {
	return mdToHTML(markdown)
}

// RenderHTML 把笔记转换成完整的 HTML 页面（GFM：表格、删除线、任务列表）。
// 空笔记得到只有标题的空页面。
func RenderHTML(markdown string) (string, error) {
	body, err := mdToHTML(markdown)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: strings.TrimSuffix(NoteFilename, filepath.Ext(NoteFilename)),
		Body:  template.HTML(body),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ContentDisposition 生成带 UTF-8 文件名的附件头，兼容只认 ASCII filename 的客户端。
func ContentDisposition(filename string) string {
	fallback := "notes" + filepath.Ext(filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(filename))
}
