package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-extractor/internal/ai"
	"github.com/spigell/cv-extractor/internal/ai/gemini"
	"github.com/spigell/cv-extractor/internal/extraction"
	"github.com/spigell/cv-extractor/internal/secrets"
)

const (
	app = "cv-extractor"

	apiKeyEnv = "GEMINI_API_KEY"
)

type Config struct {
	Gemini     *GeminiConfig     `mapstructure:"gemini"`
	Generation *GenerationConfig `mapstructure:"generation"`
	Retry      *RetryConfig      `mapstructure:"retry"`
	Log        *LogConfig        `mapstructure:"log"`
}

type GeminiConfig struct {
	Backend    string `mapstructure:"backend"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Project    string `mapstructure:"project"`
	Location   string `mapstructure:"location"`
	Model      string `mapstructure:"model"`
}

type GenerationConfig struct {
	Temperature     float32  `mapstructure:"temperature"`
	TopP            float32  `mapstructure:"top-p"`
	TopK            float32  `mapstructure:"top-k"`
	MaxOutputTokens int32    `mapstructure:"max-output-tokens"`
	StopSequences   []string `mapstructure:"stop-sequences"`
	JSONOutput      bool     `mapstructure:"json-output"`
}

type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max-attempts"`
	BaseDelay      time.Duration `mapstructure:"base-delay"`
	AttemptTimeout time.Duration `mapstructure:"attempt-timeout"`
}

type LogConfig struct {
	MaxLength int `mapstructure:"max-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-extractor turns CV documents into structured candidate records",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"gemini.project":      "GOOGLE_CLOUD_PROJECT",
		"gemini.location":     "GOOGLE_CLOUD_LOCATION",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-extractor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	defaults := ai.DefaultSettings()

	v.SetDefault("gemini.backend", gemini.BackendGemini)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("generation.temperature", defaults.Temperature)
	v.SetDefault("generation.top-p", defaults.TopP)
	v.SetDefault("generation.top-k", defaults.TopK)
	v.SetDefault("generation.max-output-tokens", defaults.MaxOutputTokens)
	v.SetDefault("generation.stop-sequences", []string{})
	v.SetDefault("generation.json-output", defaults.JSONOutput)
	v.SetDefault("retry.max-attempts", extraction.DefaultMaxAttempts)
	v.SetDefault("retry.base-delay", extraction.DefaultBaseDelay)
	v.SetDefault("retry.attempt-timeout", extraction.DefaultAttemptTimeout)
	v.SetDefault("log.max-length", extraction.DefaultMaxLogLength)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was requested explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}
	if config.Generation == nil {
		settings := ai.DefaultSettings()
		config.Generation = &GenerationConfig{
			Temperature:     settings.Temperature,
			TopP:            settings.TopP,
			TopK:            settings.TopK,
			MaxOutputTokens: settings.MaxOutputTokens,
			JSONOutput:      settings.JSONOutput,
		}
	}
	if config.Retry == nil {
		config.Retry = &RetryConfig{}
	}
	if config.Log == nil {
		config.Log = &LogConfig{}
	}

	return config, nil
}

func (c *GenerationConfig) settings() ai.Settings {
	return ai.Settings{
		Temperature:     c.Temperature,
		TopP:            c.TopP,
		TopK:            c.TopK,
		MaxOutputTokens: c.MaxOutputTokens,
		StopSequences:   c.StopSequences,
		JSONOutput:      c.JSONOutput,
	}
}

// newPipeline wires the extraction pipeline. When no generative backend can be
// built the pipeline runs with the pattern fallback only.
func newPipeline(ctx context.Context, config *Config, logger *zap.Logger) *extraction.Pipeline {
	settings := config.Generation.settings()
	opts := extraction.Options{
		Provider:       "gemini",
		Model:          config.Gemini.Model,
		Settings:       &settings,
		MaxAttempts:    config.Retry.MaxAttempts,
		BaseDelay:      config.Retry.BaseDelay,
		AttemptTimeout: config.Retry.AttemptTimeout,
		MaxLogLength:   config.Log.MaxLength,
		Logger:         logger,
	}

	generator, err := newGenerator(ctx, config.Gemini)
	if err != nil {
		logger.Warn("generative backend unavailable, using pattern fallback only",
			zap.Error(err),
			zap.String("hint", "set gemini.api-key-file or GEMINI_API_KEY_FILE, or gemini.project for vertex"),
		)
	} else {
		opts.Generator = generator
		opts.Model = generator.Model()
	}

	return extraction.New(opts)
}

func newGenerator(ctx context.Context, cfg *GeminiConfig) (*gemini.Generator, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))

	var apiKey string
	if backend == "" || backend == gemini.BackendGemini {
		key, err := resolveAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		Backend:  backend,
		APIKey:   apiKey,
		Project:  cfg.Project,
		Location: cfg.Location,
		Model:    cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("building gemini generator: %w", err)
	}

	return generator, nil
}

// resolveAPIKey reads the Gemini API key from the key file, then GEMINI_API_KEY,
// then the inline gemini.api-key value.
func resolveAPIKey(cfg *GeminiConfig) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Env:   apiKeyEnv,
		Value: cfg.APIKey,
	})
}
