package server

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chat_study_notes/config"
	"chat_study_notes/generator"
	"chat_study_notes/logger"
	"chat_study_notes/publisher"
)

//go:embed web/dist
var embeddedStatic embed.FS

type Server struct {
	factory  generator.ClientFactory
	cfg      config.Config
	store    *sessionStore
	staticFS http.Handler
}

// sessionStore 只保存已结束的 session 供下载，进程重启即丢失。
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*generator.Session)}
}

func (s *sessionStore) set(id string, sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *sessionStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func New(factory generator.ClientFactory, cfg config.Config) (*Server, error) {
	if factory == nil {
		return nil, errors.New("client factory required")
	}

	sub, err := fs.Sub(embeddedStatic, "web/dist")
	if err != nil {
		return nil, err
	}

	return &Server{
		factory:  factory,
		cfg:      cfg,
		store:    newStore(),
		staticFS: http.FileServer(http.FS(sub)),
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), logMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  s.cfg.Server.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	api := r.Group("/api")
	api.GET("/models", s.handleModels)
	api.POST("/notes", s.handleNoteCreate)
	api.GET("/notes/:id", s.handleNoteGet)
	api.GET("/notes/:id/download", s.handleNoteDownload)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(s.staticHandler)
	return r
}

func (s *Server) staticHandler(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, errorResp{Code: "not_found", Message: "not found"})
		return
	}
	s.staticFS.ServeHTTP(c.Writer, c.Request)
}

// --- Handlers ---

type noteCreateReq struct {
	APIKey      string   `json:"api_key"`
	BaseURL     string   `json:"base_url"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	Transcript  string   `json:"transcript"`
}

type noteResp struct {
	SessionID   string          `json:"session_id"`
	State       generator.State `json:"state"`
	Headings    []string        `json:"headings"`
	Failed      []string        `json:"failed,omitempty"`
	Markdown    string          `json:"markdown"`
	HTML        string          `json:"html,omitempty"`
	DownloadURL string          `json:"download_url,omitempty"`
	Error       string          `json:"error,omitempty"`
	Stage       generator.Stage `json:"stage,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	Model       string          `json:"model"`
}

type errorResp struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type modelsResp struct {
	Models             []string `json:"models"`
	DefaultModel       string   `json:"default_model"`
	DefaultTemperature float64  `json:"default_temperature"`
	Filename           string   `json:"filename"`
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, modelsResp{
		Models:             s.cfg.LLM.Models,
		DefaultModel:       s.cfg.LLM.Model,
		DefaultTemperature: s.cfg.LLM.Temperature,
		Filename:           publisher.NoteFilename,
	})
}

func (s *Server) input(req noteCreateReq) generator.Input {
	in := generator.Input{
		Credentials: generator.Credentials{APIKey: req.APIKey, BaseURL: req.BaseURL},
		Config:      s.cfg.GenConfig(),
		Transcript:  req.Transcript,
		Models:      s.cfg.LLM.Models,
	}
	if in.Credentials.APIKey == "" {
		in.Credentials.APIKey = s.cfg.LLM.APIKey
	}
	if in.Credentials.BaseURL == "" {
		in.Credentials.BaseURL = s.cfg.LLM.BaseURL
	}
	if req.Model != "" {
		in.Config.Model = req.Model
	}
	if req.Temperature != nil {
		in.Config.Temperature = *req.Temperature
	}
	return in
}

// handleNoteCreate 校验输入后以 SSE 推送整个生成过程。
func (s *Server) handleNoteCreate(c *gin.Context) {
	var req noteCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Code: "bad_request", Message: err.Error()})
		return
	}
	in := s.input(req)
	if err := generator.CheckInput(in); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{
			Code:    string(generator.StagePrecondition),
			Message: generator.PreconditionNotice(err),
			Detail:  err.Error(),
		})
		return
	}

	id := uuid.NewString()
	sess := generator.NewSession(id, in, s.factory)
	ctx := logger.WithContext(c.Request.Context(), logger.SessionIDKey, id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	n := &sseNotifier{c: c}
	n.emit("session", gin.H{"session_id": id})
	_, err := sess.Run(ctx, n)
	s.store.set(id, sess)

	resp := s.noteResponse(sess)
	if err != nil {
		resp.Error = err.Error()
		resp.Stage = generator.StageOf(err)
	}
	n.emit("done", resp)
}

func (s *Server) handleNoteGet(c *gin.Context) {
	sess, ok := s.store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResp{Code: "not_found", Message: "session not found"})
		return
	}
	c.JSON(http.StatusOK, s.noteResponse(sess))
}

// handleNoteDownload 以固定文件名返回最终笔记，format=html 时返回 goldmark 渲染结果。
func (s *Server) handleNoteDownload(c *gin.Context) {
	sess, ok := s.store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResp{Code: "not_found", Message: "session not found"})
		return
	}
	if sess.State != generator.StateComplete {
		c.JSON(http.StatusConflict, errorResp{Code: "not_complete", Message: "note is not complete", Detail: string(sess.State)})
		return
	}

	md := sess.Note.Markdown()
	switch c.DefaultQuery("format", "md") {
	case "html":
		page, err := publisher.RenderHTML(md)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, errorResp{Code: "render_failed", Message: err.Error()})
			return
		}
		c.Header("Content-Disposition", publisher.ContentDisposition(publisher.HTMLFilename()))
		c.Data(http.StatusOK, publisher.HTMLMIME+"; charset=utf-8", []byte(page))
	default:
		c.Header("Content-Disposition", publisher.ContentDisposition(publisher.NoteFilename))
		c.Data(http.StatusOK, publisher.MarkdownMIME+"; charset=utf-8", []byte(md))
	}
}

// --- Helpers ---

func (s *Server) noteResponse(sess *generator.Session) noteResp {
	resp := noteResp{
		SessionID: sess.ID,
		State:     sess.State,
		Headings:  sess.Headings,
		Markdown:  sess.Note.Markdown(),
		CreatedAt: sess.CreatedAt,
		Model:     sess.Input.Config.Model,
	}
	if !sess.FinishedAt.IsZero() {
		finished := sess.FinishedAt
		resp.FinishedAt = &finished
	}
	for _, sec := range sess.Note.Failed() {
		resp.Failed = append(resp.Failed, sec.Heading)
	}
	if body, err := publisher.RenderBody(resp.Markdown); err == nil {
		resp.HTML = body
	}
	if sess.State == generator.StateComplete {
		resp.DownloadURL = "/api/notes/" + sess.ID + "/download"
	}
	return resp
}

// sseNotifier 把生成过程逐条写成 SSE 事件并立即 flush。
type sseNotifier struct {
	c *gin.Context
}

func (n *sseNotifier) emit(event string, data any) {
	n.c.SSEvent(event, data)
	n.c.Writer.Flush()
}

func (n *sseNotifier) Info(msg string)    { n.emit("info", gin.H{"message": msg}) }
func (n *sseNotifier) Success(msg string) { n.emit("success", gin.H{"message": msg}) }

func (n *sseNotifier) Error(msg string, err error) {
	data := gin.H{"message": msg}
	var se *generator.StageError
	if errors.As(err, &se) {
		data["stage"] = se.Stage
		if se.Heading != "" {
			data["heading"] = se.Heading
		}
	}
	n.emit("error", data)
}

func (n *sseNotifier) Heading(line string)  { n.emit("heading", gin.H{"line": line}) }
func (n *sseNotifier) Fragment(text string) { n.emit("fragment", gin.H{"text": text}) }

func logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
