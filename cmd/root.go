package cmd

import (
	"log"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "resume-ranker"
)

type Config struct {
	Listen         string           `mapstructure:"listen"`
	AdminTokenFile string           `mapstructure:"admin-token-file"`
	RateLimit      *RateLimitConfig `mapstructure:"rate-limit"`
	Cache          *CacheConfig     `mapstructure:"cache"`
	Gemini         *GeminiConfig    `mapstructure:"gemini"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type GeminiConfig struct {
	APIKeyFile      string `mapstructure:"api-key-file"`
	Model           string `mapstructure:"model"`
	EmbeddingModel  string `mapstructure:"embedding-model"`
	MaxRetries      int    `mapstructure:"max-retries"`
	MaxPromptLength int    `mapstructure:"max-prompt-length"`
	MaxLogLength    int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-ranker is a service that scores and ranks resume files against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("admin-token-file", "RANKER_ADMIN_TOKEN_FILE"); err != nil {
		log.Fatalf("binding RANKER_ADMIN_TOKEN_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-ranker.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("listen", ":8080")
}

func initConfig() {
	// Config needed only for the serve command. If there is no config, we can skip initialization
	if serveCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

// getConfig decodes the merged viper settings. A dedicated decoder is used so
// duration values can be written as strings like "1h" or "30m".
func getConfig() (*Config, error) {
	var config *Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, err
	}

	return config, nil
}
