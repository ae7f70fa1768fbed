// Command toolbridge runs the REST facade over the response interpretation
// and orchestration pipeline. It is the composition root: it loads
// configuration, wires the generation backend, conversation store and tool
// manager client into the orchestrator, and serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/redis/go-redis/v9"

	"github.com/toolbridge/toolbridge/agent"
	"github.com/toolbridge/toolbridge/config"
	"github.com/toolbridge/toolbridge/conversation"
	convredis "github.com/toolbridge/toolbridge/conversation/redis"
	"github.com/toolbridge/toolbridge/logging"
	"github.com/toolbridge/toolbridge/model"
	"github.com/toolbridge/toolbridge/model/anthropic"
	"github.com/toolbridge/toolbridge/model/ollama"
	"github.com/toolbridge/toolbridge/model/openai"
	"github.com/toolbridge/toolbridge/server"
	"github.com/toolbridge/toolbridge/toolmanager"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, false)
	logger.Info("starting toolbridge",
		"addr", cfg.Addr(),
		"provider", cfg.Provider,
		"model", cfg.Model,
		"tool_manager_url", cfg.ToolManagerURL,
		"store", cfg.StoreBackend,
	)

	store, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	generator := buildGenerator(cfg, logger)

	tm := toolmanager.New(cfg.ToolManagerURL, func(o *toolmanager.Options) {
		o.Timeout = cfg.ToolTimeout
		o.Logger = logger.WithComponent("toolmanager")
	})
	a := agent.New(generator, tm, tm, store, func(o *agent.Options) {
		o.TopK = cfg.TopK
		o.Logger = logger.WithComponent("agent")
	})
	srv := server.New(a, func(o *server.Options) {
		o.Logger = logger.WithComponent("server")
		o.ReleaseMode = true
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func buildStore(cfg *config.Config, logger *logging.PipelineLogger) (conversation.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return convredis.NewStore(client, func(o *convredis.Options) {
			o.MaxHistoryLength = cfg.MaxHistoryLength
			o.Logger = logger.WithComponent("store")
		}), nil
	default:
		return conversation.NewInMemoryStore(func(o *conversation.Options) {
			o.MaxHistoryLength = cfg.MaxHistoryLength
			o.Logger = logger.WithComponent("store")
		}), nil
	}
}

func buildGenerator(cfg *config.Config, logger *logging.PipelineLogger) model.Generator {
	// The model default is tuned for ollama; for hosted providers only
	// override the adapter default when the operator set a model explicitly.
	explicitModel := cfg.Model != "" && cfg.Model != config.Default().Model
	switch cfg.Provider {
	case "openai":
		return openai.New(func(o *openai.Options) {
			if explicitModel {
				o.Model = cfg.Model
			}
		})
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if explicitModel {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		})
	default:
		return ollama.New(func(o *ollama.Options) {
			o.BaseURL = cfg.OllamaBaseURL
			o.Model = cfg.Model
			o.Timeout = cfg.GenerateTimeout
			o.Logger = logger.WithComponent("ollama")
		})
	}
}
