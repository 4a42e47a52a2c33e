// Package config 提供配置加载：文件（可选）→ NOTES_* 环境变量 → 命令行参数。
// 配置只提供输入的默认值，运行之间不保存任何状态。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"chat_study_notes/generator"
)

// Config 应用配置根结构
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Server ServerConfig `mapstructure:"server"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

// LLMConfig 模型与凭据默认值。
type LLMConfig struct {
	Provider    string   `mapstructure:"provider"`
	APIKey      string   `mapstructure:"api_key"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	Temperature float64  `mapstructure:"temperature"`
	Models      []string `mapstructure:"models"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type OutputConfig struct {
	Dir  string `mapstructure:"dir"`
	HTML bool   `mapstructure:"html"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EnvPrefix 环境变量前缀，例如 NOTES_LLM_API_KEY。
const EnvPrefix = "NOTES"

// New 返回带默认值和环境变量绑定的 viper 实例，命令行参数可在 Load 前绑定上去。
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load 读取配置文件（path 为空时跳过）并解析。
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		if err := loadConfigFile(v, path); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.LLM.Models) == 0 {
		cfg.LLM.Models = generator.Models
	}
	return cfg, nil
}

// loadConfigFile 读取文件，执行 ${VAR:default} 替换后交给 viper。
func loadConfigFile(v *viper.Viper, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || ext == "yml" {
		ext = "yaml"
	}
	v.SetConfigType(ext)
	if err := v.ReadConfig(strings.NewReader(expandEnv(string(content)))); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

var envRe = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// expandEnv 替换 ${VAR} / ${VAR:default}，未定义且无默认值时保留原样。
func expandEnv(s string) string {
	return envRe.ReplaceAllStringFunc(s, func(match string) string {
		sub := envRe.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		if sub[2] != "" {
			return sub[3]
		}
		return match
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", generator.ProviderOpenAI)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", generator.Models[0])
	v.SetDefault("llm.temperature", generator.DefaultTemperature)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.html", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// GenConfig 返回本次运行的生成配置。
func (c Config) GenConfig() generator.GenConfig {
	return generator.GenConfig{Model: c.LLM.Model, Temperature: c.LLM.Temperature}
}

// Credentials 返回配置中的凭据默认值。
func (c Config) Credentials() generator.Credentials {
	return generator.Credentials{APIKey: c.LLM.APIKey, BaseURL: c.LLM.BaseURL}
}
