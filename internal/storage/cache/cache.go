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

package cache

import (
	"context"
	"fmt"
	"time"

	"resume-platform/pkg/config"
)

const defaultTTL = time.Hour

// NewCache 根据配置创建缓存，统一入口
func NewCache(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// TTL 解析配置的过期时间，空或非法时返回默认 1h
func TTL(cfg config.CacheConfig) time.Duration {
	if cfg.TTL == "" {
		return defaultTTL
	}
	d, err := time.ParseDuration(cfg.TTL)
	if err != nil || d <= 0 {
		return defaultTTL
	}
	return d
}
