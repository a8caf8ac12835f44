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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"resume-platform/pkg/secrets"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Model      ModelConfig      `mapstructure:"model"`
	Session    SessionConfig    `mapstructure:"session"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Search     SearchConfig     `mapstructure:"search"`
	Render     RenderConfig     `mapstructure:"render"`
	Secrets    secrets.Config   `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Timeout string `mapstructure:"timeout"`
}

// Addr 返回监听地址
func (c APIConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.Port
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// ModelConfig 模型配置：按角色选择不同模型以优化成本
type ModelConfig struct {
	Supervisor   RoleModelConfig `mapstructure:"supervisor"`
	Workers      RoleModelConfig `mapstructure:"workers"`
	Expansion    RoleModelConfig `mapstructure:"expansion"`
	Distillation RoleModelConfig `mapstructure:"distillation"`
	Matching     RoleModelConfig `mapstructure:"matching"`
	Search       RoleModelConfig `mapstructure:"search"`
}

// RoleModelConfig 单角色的模型配置
type RoleModelConfig struct {
	Provider    string  `mapstructure:"provider"` // openai | qwen | ollama 等 OpenAI 兼容端点
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"` // 支持 ${ENV_VAR} 占位
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// SessionConfig Session 持久化配置
type SessionConfig struct {
	Store          string `mapstructure:"store"` // file | memory | postgres
	Dir            string `mapstructure:"dir"`   // store=file 时的目录，空则默认 ~/.cache/resume-platform/sessions
	DSN            string `mapstructure:"dsn"`   // store=postgres 时必填
	AutoPersist    *bool  `mapstructure:"auto_persist"`     // 未配置时默认 true
	MaxRecentTurns int    `mapstructure:"max_recent_turns"` // prompt 窗口大小，<=0 使用默认 10
}

// AutoPersistEnabled 未配置时默认开启
func (c SessionConfig) AutoPersistEnabled() bool {
	return c.AutoPersist == nil || *c.AutoPersist
}

// CacheConfig 缓存配置（搜索结果等）
type CacheConfig struct {
	Type  string      `mapstructure:"type"` // memory | redis
	TTL   string      `mapstructure:"ttl"`  // 如 "1h"，空则默认 1h
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// SearchConfig Web 搜索服务配置
type SearchConfig struct {
	Endpoint string `mapstructure:"endpoint"` // 搜索 API 端点，空则退化为 LLM 合成结果
	APIKey   string `mapstructure:"api_key"`  // 支持 ${ENV_VAR} 占位
}

// RenderConfig 简历渲染配置
type RenderConfig struct {
	OutputDir string `mapstructure:"output_dir"` // PDF 输出目录，空则默认 ./out
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// RateLimitsConfig LLM 限流配置
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetEnvPrefix("RESUME")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)

	return &config, nil
}

// replaceEnvVars 替换配置中的 ${ENV_VAR} 占位（API Key 等敏感项）
func replaceEnvVars(config *Config) {
	roles := []*RoleModelConfig{
		&config.Model.Supervisor, &config.Model.Workers,
		&config.Model.Expansion, &config.Model.Distillation,
		&config.Model.Matching, &config.Model.Search,
	}
	for _, role := range roles {
		role.APIKey = expandEnv(role.APIKey)
	}
	config.Search.APIKey = expandEnv(config.Search.APIKey)
	config.Session.DSN = expandEnv(config.Session.DSN)
	config.Cache.Redis.Password = expandEnv(config.Cache.Redis.Password)
}

// expandEnv 将 "${VAR}" 形式的值替换为环境变量，未设置时保留原值
func expandEnv(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}
	envVar := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return value
}
