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

package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-platform/internal/agent"
	"resume-platform/internal/agent/executor"
	"resume-platform/internal/agent/planner"
	"resume-platform/internal/agent/workers"
	"resume-platform/internal/model/llm"
	"resume-platform/internal/runtime/session"
	"resume-platform/internal/runtime/sessionstore"
	pkgerrors "resume-platform/pkg/errors"
	"resume-platform/pkg/log"
	"resume-platform/pkg/metrics"
)

// Handler HTTP 处理器：会话生命周期、对话与计划执行
type Handler struct {
	store       sessionstore.Store
	catalog     *sessionstore.Catalog
	supervisor  *agent.Supervisor
	agent       *agent.ResumeExpertAgent
	renderer    *workers.Renderer
	fallback    llm.Client
	modelConfig llm.Config
	autoPersist bool
	maxRecent   int
	logger      *log.Logger
}

// HandlerOptions 处理器装配参数
type HandlerOptions struct {
	Store       sessionstore.Store
	Supervisor  *agent.Supervisor
	Agent       *agent.ResumeExpertAgent
	Renderer    *workers.Renderer
	Fallback    llm.Client
	ModelConfig llm.Config
	AutoPersist bool
	MaxRecent   int
	Logger      *log.Logger
}

// NewHandler 创建 HTTP 处理器
func NewHandler(opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		store:       opts.Store,
		catalog:     sessionstore.NewCatalog(opts.Store),
		supervisor:  opts.Supervisor,
		agent:       opts.Agent,
		renderer:    opts.Renderer,
		fallback:    opts.Fallback,
		modelConfig: opts.ModelConfig,
		autoPersist: opts.AutoPersist,
		maxRecent:   opts.MaxRecent,
		logger:      logger,
	}
}

func (h *Handler) sessionOptions() session.Options {
	opts := session.Options{
		ModelConfig:    h.modelConfig,
		Fallback:       h.fallback,
		Store:          h.store,
		AutoPersist:    h.autoPersist,
		MaxRecentTurns: h.maxRecent,
		Logger:         h.logger,
	}
	// 带类型的 nil 指针赋给接口后不再等于 nil
	if h.supervisor != nil {
		opts.Processor = h.supervisor
	}
	return opts
}

// loadSession 按 ID 取会话，未找到时写 404 并返回 nil
func (h *Handler) loadSession(c context.Context, ctx *app.RequestContext, id string) *session.Session {
	record, err := h.store.Load(c, id)
	if err != nil {
		h.logger.Error("load session failed", "session_id", id, "error", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to load session"})
		return nil
	}
	if record == nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{"error": "session not found"})
		return nil
	}
	return session.FromRecord(record, h.sessionOptions())
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "resume-platform",
	})
}

// Metrics Prometheus 指标
// GET /metrics
func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

type createSessionRequest struct {
	JobInfo       string `json:"job_info"`
	CandidateInfo string `json:"candidate_info"`
	Name          string `json:"name"`
}

// CreateSession 创建会话
// POST /api/sessions
func (h *Handler) CreateSession(c context.Context, ctx *app.RequestContext) {
	var req createSessionRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.JobInfo == "" || req.CandidateInfo == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "job_info and candidate_info are required"})
		return
	}

	opts := h.sessionOptions()
	opts.Name = req.Name
	sess := session.New(req.JobInfo, req.CandidateInfo, opts)
	if err := sess.Save(c); err != nil {
		h.logger.Error("save session failed", "session_id", sess.ID, "error", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to save session"})
		return
	}
	ctx.JSON(consts.StatusCreated, sess.Metadata())
}

// ImportCandidatePDF 上传候选人 PDF 简历创建会话
// POST /api/sessions/import
func (h *Handler) ImportCandidatePDF(c context.Context, ctx *app.RequestContext) {
	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	jobInfo := string(ctx.FormValue("job_info"))
	if jobInfo == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "job_info is required"})
		return
	}

	data, err := readUpload(file)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "failed to read upload"})
		return
	}
	candidateInfo, err := workers.ExtractPDFText(data)
	if err != nil || candidateInfo == "" {
		h.logger.Error("pdf extraction failed", "file", file.Filename, "error", err)
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "could not extract text from pdf"})
		return
	}

	opts := h.sessionOptions()
	opts.Name = string(ctx.FormValue("name"))
	sess := session.New(jobInfo, candidateInfo, opts)
	if err := sess.Save(c); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to save session"})
		return
	}
	ctx.JSON(consts.StatusCreated, sess.Metadata())
}

// ListSessions 列出会话
// GET /api/sessions
func (h *Handler) ListSessions(c context.Context, ctx *app.RequestContext) {
	summaries, err := h.store.List(c)
	if err != nil {
		h.logger.Error("list sessions failed", "error", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to list sessions"})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"sessions": summaries,
		"total":    len(summaries),
	})
}

// GetSession 获取会话详情
// GET /api/sessions/:id
func (h *Handler) GetSession(c context.Context, ctx *app.RequestContext) {
	record, err := h.store.Load(c, ctx.Param("id"))
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to load session"})
		return
	}
	if record == nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

// DeleteSession 删除会话
// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	if err := h.catalog.DelItem(c, id); err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		h.logger.Error("delete session failed", "session_id", id, "error", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to delete session"})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]string{"status": "deleted", "session_id": id})
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat 单轮对话
// POST /api/sessions/:id/chat
func (h *Handler) Chat(c context.Context, ctx *app.RequestContext) {
	var req chatRequest
	if err := ctx.BindJSON(&req); err != nil || req.Message == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	sess := h.loadSession(c, ctx, ctx.Param("id"))
	if sess == nil {
		return
	}

	response, err := sess.Chat(c, req.Message)
	if err != nil {
		// 回复有效但落盘失败：返回文本并标注降级
		h.logger.Error("chat persisted with error", "session_id", sess.ID, "error", err)
		ctx.JSON(consts.StatusOK, map[string]any{
			"response":  response,
			"persisted": false,
		})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"response":  response,
		"persisted": true,
	})
}

type switchModeRequest struct {
	Mode string `json:"mode"`
}

// SwitchMode 切换会话运行模式
// POST /api/sessions/:id/mode
func (h *Handler) SwitchMode(c context.Context, ctx *app.RequestContext) {
	var req switchModeRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Mode != session.ModeManual && req.Mode != session.ModeAuto {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown mode %q", req.Mode)})
		return
	}

	sess := h.loadSession(c, ctx, ctx.Param("id"))
	if sess == nil {
		return
	}
	if err := sess.SwitchMode(c, req.Mode); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to persist mode switch"})
		return
	}
	ctx.JSON(consts.StatusOK, sess.Metadata())
}

type proposePlanRequest struct {
	Mode string `json:"mode"` // standard | comprehensive
}

// ProposePlan 生成默认计划
// POST /api/sessions/:id/plan
func (h *Handler) ProposePlan(c context.Context, ctx *app.RequestContext) {
	var req proposePlanRequest
	_ = ctx.BindJSON(&req)

	sess := h.loadSession(c, ctx, ctx.Param("id"))
	if sess == nil {
		return
	}

	plan := h.agent.ProposePlan(req.Mode)
	ctx.JSON(consts.StatusOK, map[string]any{
		"plan":     plan,
		"markdown": plan.Markdown(),
	})
}

type revisePlanRequest struct {
	Plan        *planner.Plan `json:"plan"`
	Instruction string        `json:"instruction"`
}

// RevisePlan 按指令修订计划
// POST /api/sessions/:id/plan/revise
func (h *Handler) RevisePlan(c context.Context, ctx *app.RequestContext) {
	var req revisePlanRequest
	if err := ctx.BindJSON(&req); err != nil || req.Plan == nil || req.Instruction == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "plan and instruction are required"})
		return
	}

	sess := h.loadSession(c, ctx, ctx.Param("id"))
	if sess == nil {
		return
	}

	revised := h.agent.RevisePlan(c, req.Plan, req.Instruction)
	ctx.JSON(consts.StatusOK, map[string]any{
		"plan":     revised,
		"markdown": revised.Markdown(),
	})
}

type executePlanRequest struct {
	Plan *planner.Plan `json:"plan"`
}

// ExecutePlan 非交互执行计划
// POST /api/sessions/:id/execute
func (h *Handler) ExecutePlan(c context.Context, ctx *app.RequestContext) {
	var req executePlanRequest
	if err := ctx.BindJSON(&req); err != nil || req.Plan == nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "plan is required"})
		return
	}

	sess := h.loadSession(c, ctx, ctx.Param("id"))
	if sess == nil {
		return
	}

	result := h.agent.ExecutePlan(c, sess, req.Plan, executor.Options{})
	status := consts.StatusOK
	if len(result.ValidationErrors) > 0 {
		status = consts.StatusUnprocessableEntity
	}
	if result.SaveError != "" {
		status = consts.StatusInternalServerError
	}
	ctx.JSON(status, result)
}

type createResumeRequest struct {
	Mode string `json:"mode"`
}

// CreateResume 自治生成完整简历
// POST /api/sessions/:id/resume
func (h *Handler) CreateResume(c context.Context, ctx *app.RequestContext) {
	var req createResumeRequest
	_ = ctx.BindJSON(&req)

	sess := h.loadSession(c, ctx, ctx.Param("id"))
	if sess == nil {
		return
	}

	resume := h.agent.CreateResume(c, sess, req.Mode)
	ctx.JSON(consts.StatusOK, map[string]any{
		"session_id": sess.ID,
		"resume":     resume,
	})
}

type renderRequest struct {
	FileName string `json:"file_name"`
}

// RenderPDF 把会话中的简历草稿渲染为 PDF
// POST /api/sessions/:id/render
func (h *Handler) RenderPDF(c context.Context, ctx *app.RequestContext) {
	var req renderRequest
	_ = ctx.BindJSON(&req)

	sess := h.loadSession(c, ctx, ctx.Param("id"))
	if sess == nil {
		return
	}

	drafts := sess.State.Bucket("drafts")
	resume, _ := drafts["resume"].(string)
	if resume == "" {
		ctx.JSON(consts.StatusConflict, map[string]string{"error": "no resume draft in session state"})
		return
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = sess.ID + ".pdf"
	}
	outPath, err := h.renderer.Render(resume, fileName)
	if err != nil {
		h.logger.Error("pdf render failed", "session_id", sess.ID, "error", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to render pdf"})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]string{
		"session_id": sess.ID,
		"path":       outPath,
	})
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
