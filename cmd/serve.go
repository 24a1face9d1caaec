package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spigell/resume-ranker/internal/ai/gemini"
	"github.com/spigell/resume-ranker/internal/cache"
	"github.com/spigell/resume-ranker/internal/extract"
	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/ranking"
	"github.com/spigell/resume-ranker/internal/ratelimit"
	"github.com/spigell/resume-ranker/internal/secrets"
	"github.com/spigell/resume-ranker/internal/server"
	"github.com/spigell/resume-ranker/internal/textproc"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resume-ranker HTTP service",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on. Default is :8080.")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

// serve is the main command for the service.
func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-ranker", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		config = &Config{Listen: viper.GetString("listen")}
	}

	apiKey, err := resolveGeminiAPIKey(config)
	if err != nil {
		logger.Fatal(
			"loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the 'gemini.api-key-file' key in the configuration file"),
		)
	}

	adminToken := resolveAdminToken(config, logger)

	deps, err := buildDependencies(ctx, config, apiKey, logger)
	if err != nil {
		logger.Fatal("building service dependencies", zap.Error(err))
	}

	srv := server.New(server.Config{
		Listen:     config.Listen,
		AdminToken: adminToken,
		Debug:      viper.GetBool("debug"),
	}, logger, deps.cache, deps.limiter, deps.pipeline)

	logger.Info("service configured",
		zap.Int("rate_limit_requests", deps.limiter.Limit()),
		zap.Duration("rate_limit_window", deps.limiter.Window()),
		zap.Duration("cache_ttl", deps.cache.TTL()),
	)

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown signal received"))
}

type dependencies struct {
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	pipeline *ranking.Pipeline
}

func buildDependencies(ctx context.Context, config *Config, apiKey string, log *zap.Logger) (*dependencies, error) {
	gcfg := config.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	genLogger := logger.WithCommonFields(log, "gemini", gcfg.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model, gcfg.EmbeddingModel, gcfg.MaxRetries, genLogger)
	if err != nil {
		return nil, fmt.Errorf("building gemini generator: %w", err)
	}

	var ttl time.Duration
	if config.Cache != nil {
		ttl = config.Cache.TTL
	}
	embeddings := cache.New(generator, ttl)

	var requests int
	var window time.Duration
	if config.RateLimit != nil {
		requests = config.RateLimit.Requests
		window = config.RateLimit.Window
	}
	limiter := ratelimit.New(requests, window)

	explainer := gemini.NewExplainer(generator, gcfg.MaxPromptLength, gcfg.MaxLogLength, genLogger)

	pipeline := ranking.New(ranking.Deps{
		Extractor:  extract.NewPDF(),
		Cleaner:    textproc.NewCleaner(),
		Embeddings: embeddings,
		Explainer:  explainer,
		Logger:     log,
	})

	return &dependencies{
		cache:    embeddings,
		limiter:  limiter,
		pipeline: pipeline,
	}, nil
}

func resolveGeminiAPIKey(config *Config) (string, error) {
	file := ""
	if config.Gemini != nil {
		file = config.Gemini.APIKeyFile
	}
	if file == "" {
		file = viper.GetString("gemini.api-key-file")
	}

	return secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: file,
		Env:  "GEMINI_API_KEY",
	})
}

// resolveAdminToken loads the token guarding the clear-cache endpoint. An
// unset token leaves the endpoint open; that gets a loud warning rather than
// a hard failure so local setups keep working.
func resolveAdminToken(config *Config, logger *zap.Logger) string {
	file := config.AdminTokenFile
	if file == "" {
		file = viper.GetString("admin-token-file")
	}

	if file == "" {
		logger.Warn("clear-cache endpoint is not protected",
			zap.String("hint", "set RANKER_ADMIN_TOKEN_FILE environment variable or the 'admin-token-file' key in the configuration file"),
		)
		return ""
	}

	token, err := secrets.Load(secrets.Source{
		Name: "admin token",
		File: file,
	})
	if err != nil {
		logger.Fatal("loading admin token", zap.Error(err))
	}

	return token
}
