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
	"github.com/cloudwego/hertz/pkg/app/server"
)

// Router HTTP 路由器：装配 Hertz Server 与 Handler
type Router struct {
	handler *Handler
}

// NewRouter 创建路由器
func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

// Build 创建 Hertz Server 并注册路由
func (r *Router) Build(addr string) *server.Hertz {
	h := server.Default(server.WithHostPorts(addr))
	r.register(h)
	return h
}

func (r *Router) register(h *server.Hertz) {
	h.GET("/metrics", r.handler.Metrics)

	api := h.Group("/api")
	api.GET("/health", r.handler.HealthCheck)

	sessions := api.Group("/sessions")
	{
		sessions.POST("", r.handler.CreateSession)
		sessions.POST("/import", r.handler.ImportCandidatePDF)
		sessions.GET("", r.handler.ListSessions)
		sessions.GET("/:id", r.handler.GetSession)
		sessions.DELETE("/:id", r.handler.DeleteSession)

		sessions.POST("/:id/chat", r.handler.Chat)
		sessions.POST("/:id/mode", r.handler.SwitchMode)
		sessions.POST("/:id/plan", r.handler.ProposePlan)
		sessions.POST("/:id/plan/revise", r.handler.RevisePlan)
		sessions.POST("/:id/execute", r.handler.ExecutePlan)
		sessions.POST("/:id/resume", r.handler.CreateResume)
		sessions.POST("/:id/render", r.handler.RenderPDF)
	}
}
