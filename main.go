package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chat_study_notes/config"
	"chat_study_notes/console"
	"chat_study_notes/generator"
	"chat_study_notes/logger"
	"chat_study_notes/publisher"
	"chat_study_notes/server"
)

var (
	v          = config.New()
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "chat_study_notes",
	Short:         "Turn a chat transcript into structured study notes",
	Long:          "Generate a Markdown outline from a pasted chat transcript, then stream a detailed section for every heading.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (yaml/json), optional")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
	rootCmd.PersistentFlags().String("api-key", "", "API key (default: $NOTES_LLM_API_KEY)")
	rootCmd.PersistentFlags().String("base-url", "", "OpenAI-compatible base URL (default: "+generator.DefaultBaseURL+")")
	rootCmd.PersistentFlags().String("model", "", "model, one of: "+strings.Join(generator.Models, ", "))
	rootCmd.PersistentFlags().Float64("temperature", generator.DefaultTemperature, "sampling temperature in [0, 1]")
	rootCmd.PersistentFlags().String("provider", "", "llm provider: openai or mock")
	bindFlag(rootCmd, "llm.api_key", "api-key")
	bindFlag(rootCmd, "llm.base_url", "base-url")
	bindFlag(rootCmd, "llm.model", "model")
	bindFlag(rootCmd, "llm.temperature", "temperature")
	bindFlag(rootCmd, "llm.provider", "provider")

	generateCmd.Flags().StringP("transcript", "t", "", "transcript file, - for stdin (stdin is read when piped)")
	generateCmd.Flags().StringP("out", "o", "", "output directory for "+publisher.NoteFilename)
	generateCmd.Flags().Bool("html", false, "also export an HTML copy")
	bindFlag(generateCmd, "output.dir", "out")
	bindFlag(generateCmd, "output.html", "html")

	serveCmd.Flags().String("addr", "", "http listen address (default :8080)")
	bindFlag(serveCmd, "server.addr", "addr")

	rootCmd.AddCommand(generateCmd, serveCmd, modelsCmd)
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	fs := cmd.PersistentFlags()
	if fs.Lookup(flag) == nil {
		fs = cmd.Flags()
	}
	if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
		panic(err)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return config.Config{}, err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger.Init(level, cfg.Log.Format)
	return cfg, nil
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate notes in the terminal and save them as " + publisher.NoteFilename,
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("transcript")
	transcript, err := readTranscript(path, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	factory, err := generator.NewClientFactory(cfg.LLM.Provider)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess := generator.NewSession(uuid.NewString(), generator.Input{
		Credentials: cfg.Credentials(),
		Config:      cfg.GenConfig(),
		Transcript:  transcript,
		Models:      cfg.LLM.Models,
	}, factory)
	note, err := sess.Run(ctx, console.New(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	pub, err := publisher.New(publisher.Config{Dir: cfg.Output.Dir, HTML: cfg.Output.HTML}, logger.Default())
	if err != nil {
		return err
	}
	art, err := pub.Publish(ctx, note.Markdown())
	if err != nil {
		return err
	}
	if note.Empty() {
		fmt.Fprintln(cmd.ErrOrStderr(), "⚠️ 大纲中没有识别到标题，笔记为空")
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "📥 笔记已保存：%s\n", art.Path)
	if art.HTMLPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "📥 HTML：%s\n", art.HTMLPath)
	}
	return nil
}

// readTranscript 优先读取文件；"-" 或未指定且 stdin 不是终端时读取 stdin。
func readTranscript(path string, stdin io.Reader) (string, error) {
	if path != "" && path != "-" {
		b, err := os.ReadFile(path)
		return string(b), err
	}
	if f, ok := stdin.(*os.File); ok && path == "" {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	b, err := io.ReadAll(stdin)
	return string(b), err
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		factory, err := generator.NewClientFactory(cfg.LLM.Provider)
		if err != nil {
			return err
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		srv, err := server.New(factory, cfg)
		if err != nil {
			return err
		}
		logger.Info(cmd.Context(), "starting web server", "addr", cfg.Server.Addr, "provider", cfg.LLM.Provider)
		return http.ListenAndServe(cfg.Server.Addr, srv.Routes())
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List selectable models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, m := range cfg.LLM.Models {
			mark := " "
			if m == cfg.LLM.Model {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, m)
		}
		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
