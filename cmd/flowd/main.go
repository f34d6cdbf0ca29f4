// Command flowd serves every .flow workflow in a directory over HTTP: a
// trigger endpoint per workflow and a WebSocket stream of each run's step
// events.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	flowconfig "github.com/flow-lang/flow/internal/flow/config"
	"github.com/flow-lang/flow/internal/flow/cache"
	flowserver "github.com/flow-lang/flow/internal/flow/server"
)

func main() {
	workflowDir := flag.String("dir", "workflows", "directory of .flow files to serve")
	flag.Parse()

	cfg, err := flowconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	programCache, err := newCache(cfg.Cache)
	if err != nil {
		logger.Fatal("building program cache", zap.Error(err))
	}

	jwtSecret := cfg.Server.JWTSecret
	if jwtSecret == "" {
		jwtSecret = os.Getenv("FLOW_JWT_SECRET")
	}
	if jwtSecret == "" {
		logger.Fatal("server.jwt_secret (or FLOW_JWT_SECRET) must be set")
	}

	srv, failed, err := flowserver.New(flowserver.Config{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		WorkflowDir:    *workflowDir,
		JWTSecret:      jwtSecret,
		TokenTTL:       24 * time.Hour,
		ExecTimeout:    cfg.Execution.DefaultTimeout,
		ShutdownWindow: 30 * time.Second,
	}, programCache, logger)
	if err != nil {
		logger.Fatal("building server", zap.Error(err))
	}

	for name, diags := range failed {
		logger.Warn("workflow failed to compile and will not be served", zap.String("workflow", name), zap.Int("errors", diags.ErrorCount()))
	}

	if err := srv.ListenAndServeWithGracefulShutdown(); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func newLogger(cfg flowconfig.LogConfig) (*zap.Logger, error) {
	if cfg.JSON {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newCache(cfg flowconfig.CacheConfig) (cache.ProgramCache, error) {
	if cfg.Backend == "redis" {
		redisCfg := cache.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisURL
		return cache.NewRedis(redisCfg)
	}
	return cache.NewMemory(), nil
}
