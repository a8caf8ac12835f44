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

package model

import (
	"resume-platform/internal/model/llm"
	"resume-platform/pkg/config"
)

// 模型角色名
const (
	RoleSupervisor   = "supervisor"
	RoleWorkers      = "workers"
	RoleExpansion    = "expansion"
	RoleDistillation = "distillation"
	RoleMatching     = "matching"
	RoleSearch       = "search"
)

// Registry 按角色选择模型配置，显式注入（不使用进程级单例）。
// 角色未配置时回退到 Workers 配置，便于按任务做成本优化。
type Registry struct {
	Supervisor llm.Config
	Workers    llm.Config

	Expansion    *llm.Config
	Distillation *llm.Config
	Matching     *llm.Config
	Search       *llm.Config
}

// Config 返回角色对应的模型配置，未配置的角色回退到 Workers
func (r *Registry) Config(role string) llm.Config {
	switch role {
	case RoleSupervisor:
		return r.Supervisor
	case RoleExpansion:
		if r.Expansion != nil {
			return *r.Expansion
		}
	case RoleDistillation:
		if r.Distillation != nil {
			return *r.Distillation
		}
	case RoleMatching:
		if r.Matching != nil {
			return *r.Matching
		}
	case RoleSearch:
		if r.Search != nil {
			return *r.Search
		}
	}
	return r.Workers
}

// Default 默认注册表：supervisor 用高质量模型，workers 用轻量模型
func Default() *Registry {
	return &Registry{
		Supervisor: llm.Config{Provider: "openai", Model: "gpt-4", Temperature: 0.3},
		Workers:    llm.Config{Provider: "openai", Model: "gpt-3.5-turbo", Temperature: 0.7},
	}
}

// Fast 速度/成本优先
func Fast() *Registry {
	cfg := llm.Config{Provider: "openai", Model: "gpt-3.5-turbo", Temperature: 0.7}
	return &Registry{Supervisor: cfg, Workers: cfg}
}

// Quality 质量优先
func Quality() *Registry {
	cfg := llm.Config{Provider: "openai", Model: "gpt-4", Temperature: 0.3}
	return &Registry{Supervisor: cfg, Workers: cfg}
}

// FromConfig 由应用配置构建注册表；supervisor/workers 缺省时使用 Default 值
func FromConfig(mc config.ModelConfig) *Registry {
	reg := Default()
	if mc.Supervisor.Model != "" {
		reg.Supervisor = roleToConfig(mc.Supervisor)
	}
	if mc.Workers.Model != "" {
		reg.Workers = roleToConfig(mc.Workers)
	}
	if mc.Expansion.Model != "" {
		cfg := roleToConfig(mc.Expansion)
		reg.Expansion = &cfg
	}
	if mc.Distillation.Model != "" {
		cfg := roleToConfig(mc.Distillation)
		reg.Distillation = &cfg
	}
	if mc.Matching.Model != "" {
		cfg := roleToConfig(mc.Matching)
		reg.Matching = &cfg
	}
	if mc.Search.Model != "" {
		cfg := roleToConfig(mc.Search)
		reg.Search = &cfg
	}
	return reg
}

func roleToConfig(rc config.RoleModelConfig) llm.Config {
	return llm.Config{
		Provider:    rc.Provider,
		Model:       rc.Model,
		APIKey:      rc.APIKey,
		BaseURL:     rc.BaseURL,
		Temperature: rc.Temperature,
		MaxTokens:   rc.MaxTokens,
	}
}
