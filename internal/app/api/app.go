// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api 装配 API 应用：配置 → 模型客户端 → worker → 编排层 → HTTP
package api

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"

	"resume-platform/internal/agent"
	"resume-platform/internal/agent/workers"
	httpapi "resume-platform/internal/api/http"
	"resume-platform/internal/model"
	"resume-platform/internal/model/llm"
	"resume-platform/internal/runtime/sessionstore"
	"resume-platform/internal/storage/cache"
	"resume-platform/pkg/config"
	"resume-platform/pkg/log"
	"resume-platform/pkg/secrets"
)

// App API 应用
type App struct {
	config *config.Config
	logger *log.Logger
	hertz  *server.Hertz
	cache  cache.Store
	store  sessionstore.Store
}

// NewApp 按配置装配 API 应用
func NewApp(cfg *config.Config) (*App, error) {
	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	secretStore, err := secrets.NewStore(cfg.Secrets)
	if err != nil {
		return nil, fmt.Errorf("init secret store: %w", err)
	}

	registry := model.FromConfig(cfg.Model)
	resolveAPIKeys(registry, secretStore, logger)

	rateLimiter := newRateLimiter(cfg.RateLimits)

	sessionStore, err := NewSessionStore(context.Background(), cfg.Session, logger)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	cacheStore, err := cache.NewCache(context.Background(), cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	supervisorClient := newClient(registry.Config(model.RoleSupervisor), rateLimiter, logger)
	workerSet := agent.Workers{
		Expansion:    workers.NewExpansion(newClient(registry.Config(model.RoleExpansion), rateLimiter, logger), registry.Config(model.RoleExpansion).Options()),
		Distillation: workers.NewDistillation(newClient(registry.Config(model.RoleDistillation), rateLimiter, logger), registry.Config(model.RoleDistillation).Options()),
		Matching:     workers.NewMatching(newClient(registry.Config(model.RoleMatching), rateLimiter, logger), registry.Config(model.RoleMatching).Options()),
		Search: workers.NewSearch(workers.SearchOptions{
			Endpoint: cfg.Search.Endpoint,
			APIKey:   cfg.Search.APIKey,
			Client:   newClient(registry.Config(model.RoleSearch), rateLimiter, logger),
			Options:  registry.Config(model.RoleSearch).Options(),
			Cache:    cacheStore,
			TTL:      cache.TTL(cfg.Cache),
			Logger:   logger,
		}),
		Section: workers.NewSection(newClient(registry.Config(model.RoleWorkers), rateLimiter, logger), registry.Config(model.RoleWorkers).Options()),
	}

	supervisor := agent.NewSupervisor(supervisorClient, registry.Config(model.RoleSupervisor).Options(), workerSet, logger)
	expert := agent.NewResumeExpertAgent(supervisorClient, registry.Config(model.RoleSupervisor).Options(), logger)

	handler := httpapi.NewHandler(httpapi.HandlerOptions{
		Store:       sessionStore,
		Supervisor:  supervisor,
		Agent:       expert,
		Renderer:    workers.NewRenderer(cfg.Render.OutputDir),
		Fallback:    supervisorClient,
		ModelConfig: registry.Supervisor,
		AutoPersist: cfg.Session.AutoPersistEnabled(),
		MaxRecent:   cfg.Session.MaxRecentTurns,
		Logger:      logger,
	})

	return &App{
		config: cfg,
		logger: logger,
		hertz:  httpapi.NewRouter(handler).Build(cfg.API.Addr()),
		cache:  cacheStore,
		store:  sessionStore,
	}, nil
}

// Run 启动 HTTP 服务（阻塞）
func (a *App) Run() error {
	hlog.SetLogger(hertzslog.NewLogger(hertzslog.WithOutput(os.Stdout)))
	a.logger.Info("api server starting", "addr", a.config.API.Addr())
	return a.hertz.Run()
}

// Shutdown 优雅关闭
func (a *App) Shutdown(ctx context.Context) error {
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if closer, ok := a.store.(interface{ Close() }); ok {
		closer.Close()
	}
	return nil
}

// NewSessionStore 按配置创建会话存储（file | memory | postgres）
func NewSessionStore(ctx context.Context, cfg config.SessionConfig, logger *log.Logger) (sessionstore.Store, error) {
	switch cfg.Store {
	case "", "file":
		return sessionstore.NewFileStore(cfg.Dir, logger)
	case "memory":
		return sessionstore.NewMemoryStore(), nil
	case "postgres":
		return sessionstore.NewPGStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Store)
	}
}

// newClient 创建带限流的 LLM 客户端；配置不完整时返回 nil（调用方降级）
func newClient(cfg llm.Config, limiter *llm.LLMRateLimiter, logger *log.Logger) llm.Client {
	if cfg.Model == "" {
		return nil
	}
	client, err := llm.NewClientFromConfig(cfg)
	if err != nil {
		logger.Warn("llm client init failed, running degraded", "model", cfg.Model, "error", err)
		return nil
	}
	return llm.NewRateLimitedClient(client, limiter)
}

// newRateLimiter 把应用配置转为限流器配置
func newRateLimiter(cfg config.RateLimitsConfig) *llm.LLMRateLimiter {
	configs := make(map[string]llm.LLMLimitConfig, len(cfg.LLM))
	for provider, c := range cfg.LLM {
		configs[provider] = llm.LLMLimitConfig{
			TokensPerMinute:   c.TokensPerMinute,
			RequestsPerMinute: c.RequestsPerMinute,
			MaxConcurrent:     c.MaxConcurrent,
		}
	}
	return llm.NewLLMRateLimiter(configs, nil)
}

// resolveAPIKeys 为缺失 API Key 的角色从 Secret Store 补齐
func resolveAPIKeys(registry *model.Registry, store secrets.Store, logger *log.Logger) {
	ctx := context.Background()
	fill := func(cfg *llm.Config) {
		if cfg == nil || cfg.Model == "" || cfg.APIKey != "" {
			return
		}
		key, err := store.Get(ctx, "OPENAI_API_KEY")
		if err != nil || key == "" {
			logger.Debug("no api key in secret store", "provider", cfg.Provider)
			return
		}
		cfg.APIKey = key
	}
	fill(&registry.Supervisor)
	fill(&registry.Workers)
	fill(registry.Expansion)
	fill(registry.Distillation)
	fill(registry.Matching)
	fill(registry.Search)
}
