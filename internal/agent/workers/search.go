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

package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"resume-platform/internal/model/llm"
	"resume-platform/internal/storage/cache"
	"resume-platform/pkg/log"
)

// SearchResult 单条搜索结果
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
	Model   string `json:"model,omitempty"`
}

// Search 公司与话题的外部检索 worker。三级来源：
// 配置了搜索端点时走真实 API，否则用 LLM 基于常识合成，
// 两者都不可用时返回占位结果。结果按查询词缓存。
type Search struct {
	http     *resty.Client
	endpoint string
	client   llm.Client
	options  llm.GenerateOptions
	cache    cache.Store
	ttl      time.Duration
	logger   *log.Logger
}

// SearchOptions 搜索 worker 构造参数
type SearchOptions struct {
	Endpoint string // 搜索 API 端点，空则不用真实搜索
	APIKey   string
	Client   llm.Client // 合成降级用，可为 nil
	Options  llm.GenerateOptions
	Cache    cache.Store // 可为 nil（不缓存）
	TTL      time.Duration
	Logger   *log.Logger
}

// NewSearch 创建搜索 worker
func NewSearch(opts SearchOptions) *Search {
	httpClient := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2)
	if opts.APIKey != "" {
		httpClient.SetAuthToken(opts.APIKey)
	}
	if opts.Options.MaxTokens <= 0 {
		opts.Options.MaxTokens = 500
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Search{
		http:     httpClient,
		endpoint: opts.Endpoint,
		client:   opts.Client,
		options:  opts.Options,
		cache:    opts.Cache,
		ttl:      opts.TTL,
		logger:   logger,
	}
}

// Run 搜索并返回结果，resultCount <= 0 时默认 5 条
func (w *Search) Run(ctx context.Context, query string, resultCount int) []SearchResult {
	if resultCount <= 0 {
		resultCount = 5
	}

	cacheKey := fmt.Sprintf("search:%s:%d", query, resultCount)
	if w.cache != nil {
		var cached []SearchResult
		if err := w.cache.Get(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
			return cached
		}
	}

	results := w.fetch(ctx, query, resultCount)

	if w.cache != nil && len(results) > 0 {
		if err := w.cache.Set(ctx, cacheKey, results, w.ttl); err != nil {
			w.logger.Warn("search cache write failed", "query", query, "error", err)
		}
	}
	return results
}

func (w *Search) fetch(ctx context.Context, query string, resultCount int) []SearchResult {
	if w.endpoint != "" {
		results, err := w.searchAPI(ctx, query, resultCount)
		if err == nil && len(results) > 0 {
			return results
		}
		if err != nil {
			w.logger.Warn("search API failed, falling back to LLM synthesis", "query", query, "error", err)
		}
	}
	if w.client != nil {
		return w.synthesize(ctx, query)
	}
	return []SearchResult{{
		Title:   fmt.Sprintf("Mock result for: %s", query),
		Snippet: "Configure a search endpoint for real results",
		URL:     "https://example.com",
		Model:   "none",
	}}
}

// searchAPI 调用外部搜索服务
func (w *Search) searchAPI(ctx context.Context, query string, resultCount int) ([]SearchResult, error) {
	defer observeWorker("search_api")()

	var results []SearchResult
	resp, err := w.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetQueryParam("count", strconv.Itoa(resultCount)).
		SetResult(&results).
		Get(w.endpoint)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search request: status %d", resp.StatusCode())
	}
	return results, nil
}

// synthesize 用 LLM 基于常识合成搜索结果
func (w *Search) synthesize(ctx context.Context, query string) []SearchResult {
	defer observeWorker("search_synthesis")()

	prompt := fmt.Sprintf(`Generate 3-5 key facts about: %s

Format as JSON array:
[{"title": "...", "snippet": "...", "url": "https://example.com"}]

Focus on information relevant for a job candidate researching this company/topic.`, query)

	response, err := w.client.GenerateWithContext(ctx, prompt, w.options)
	if err != nil {
		return []SearchResult{{
			Title:   fmt.Sprintf("Search unavailable for: %s", query),
			Snippet: fmt.Sprintf("[SEARCH ERROR: %v]", err),
			URL:     "https://example.com",
			Model:   w.client.Model(),
		}}
	}

	var results []SearchResult
	if err := json.Unmarshal([]byte(extractJSONArray(response)), &results); err != nil || len(results) == 0 {
		return []SearchResult{{
			Title:   fmt.Sprintf("Notes on: %s", query),
			Snippet: strings.TrimSpace(response),
			Model:   w.client.Model(),
		}}
	}
	for i := range results {
		results[i].Model = w.client.Model()
	}
	return results
}

// FormatResults 渲染搜索结果为对话可读文本
func FormatResults(results []SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("**%s**\n%s\nSource: %s", r.Title, r.Snippet, r.URL))
	}
	return strings.Join(blocks, "\n\n")
}
