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
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"resume-platform/internal/agent"
	"resume-platform/internal/model/llm"
	"resume-platform/internal/runtime/sessionstore"
)

func newTestEngine(t *testing.T) (*server.Hertz, sessionstore.Store) {
	t.Helper()
	store := sessionstore.NewMemoryStore()
	handler := NewHandler(HandlerOptions{
		Store:       store,
		Agent:       agent.NewResumeExpertAgent(nil, llm.GenerateOptions{}, nil),
		AutoPersist: true,
	})
	h := server.Default(server.WithHostPorts(":0"))
	NewRouter(handler).register(h)
	return h, store
}

func performJSON(h *server.Hertz, method, path string, body []byte) *ut.ResponseRecorder {
	return ut.PerformRequest(h.Engine, method, path,
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func createTestSession(t *testing.T, h *server.Hertz) string {
	t.Helper()
	body := []byte(`{"job_info": "Senior ML Engineer", "candidate_info": "Jane Doe, 6 years experience", "name": "jane"}`)
	w := performJSON(h, "POST", "/api/sessions", body)
	resp := w.Result()
	if resp.StatusCode() != 201 {
		t.Fatalf("CreateSession status: got %d, body %s", resp.StatusCode(), resp.Body())
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &meta); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	id, _ := meta["session_id"].(string)
	if id == "" {
		t.Fatalf("CreateSession returned no session_id: %s", resp.Body())
	}
	return id
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestEngine(t)
	w := ut.PerformRequest(h.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Errorf("HealthCheck status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("resume-platform")) {
		t.Errorf("HealthCheck body: %s", resp.Body())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestEngine(t)
	w := ut.PerformRequest(h.Engine, "GET", "/metrics", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Errorf("Metrics status: got %d", resp.StatusCode())
	}
}

func TestCreateSession_MissingFields(t *testing.T) {
	h, _ := newTestEngine(t)
	w := performJSON(h, "POST", "/api/sessions", []byte(`{"job_info": "only job"}`))
	resp := w.Result()
	if resp.StatusCode() != 400 {
		t.Errorf("CreateSession missing fields: status got %d, want 400", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("candidate_info")) {
		t.Errorf("CreateSession missing fields: body %s", resp.Body())
	}
}

func TestSessionLifecycle(t *testing.T) {
	h, _ := newTestEngine(t)
	id := createTestSession(t, h)

	w := ut.PerformRequest(h.Engine, "GET", "/api/sessions/"+id, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("GetSession status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("Jane Doe")) {
		t.Errorf("GetSession body: %s", resp.Body())
	}

	w = ut.PerformRequest(h.Engine, "GET", "/api/sessions", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp = w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("ListSessions status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte(`"total":1`)) {
		t.Errorf("ListSessions body: %s", resp.Body())
	}

	w = ut.PerformRequest(h.Engine, "DELETE", "/api/sessions/"+id, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp = w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("DeleteSession status: got %d", resp.StatusCode())
	}

	w = ut.PerformRequest(h.Engine, "DELETE", "/api/sessions/"+id, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp = w.Result()
	if resp.StatusCode() != 404 {
		t.Errorf("DeleteSession twice: status got %d, want 404", resp.StatusCode())
	}
}

func TestGetSession_NotFound(t *testing.T) {
	h, _ := newTestEngine(t)
	w := ut.PerformRequest(h.Engine, "GET", "/api/sessions/no-such-id", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 404 {
		t.Errorf("GetSession unknown id: status got %d, want 404", resp.StatusCode())
	}
}

// 无 supervisor 也无降级客户端时，对话仍返回 200 与可见的错误说明
func TestChat_NoModelConfigured(t *testing.T) {
	h, _ := newTestEngine(t)
	id := createTestSession(t, h)

	w := performJSON(h, "POST", "/api/sessions/"+id+"/chat", []byte(`{"message": "help me"}`))
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("Chat status: got %d, body %s", resp.StatusCode(), resp.Body())
	}
	if !bytes.Contains(resp.Body(), []byte("no language model available")) {
		t.Errorf("Chat body: %s", resp.Body())
	}
	if !bytes.Contains(resp.Body(), []byte(`"persisted":true`)) {
		t.Errorf("Chat should persist: %s", resp.Body())
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	h, _ := newTestEngine(t)
	id := createTestSession(t, h)
	w := performJSON(h, "POST", "/api/sessions/"+id+"/chat", []byte(`{}`))
	resp := w.Result()
	if resp.StatusCode() != 400 {
		t.Errorf("Chat empty message: status got %d, want 400", resp.StatusCode())
	}
}

func TestSwitchMode(t *testing.T) {
	h, _ := newTestEngine(t)
	id := createTestSession(t, h)

	w := performJSON(h, "POST", "/api/sessions/"+id+"/mode", []byte(`{"mode": "auto"}`))
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("SwitchMode status: got %d, body %s", resp.StatusCode(), resp.Body())
	}
	if !bytes.Contains(resp.Body(), []byte(`"mode":"auto"`)) {
		t.Errorf("SwitchMode body: %s", resp.Body())
	}

	w = performJSON(h, "POST", "/api/sessions/"+id+"/mode", []byte(`{"mode": "turbo"}`))
	resp = w.Result()
	if resp.StatusCode() != 400 {
		t.Errorf("SwitchMode unknown mode: status got %d, want 400", resp.StatusCode())
	}
}

func TestProposePlan(t *testing.T) {
	h, _ := newTestEngine(t)
	id := createTestSession(t, h)

	w := performJSON(h, "POST", "/api/sessions/"+id+"/plan", []byte(`{"mode": "comprehensive"}`))
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("ProposePlan status: got %d, body %s", resp.StatusCode(), resp.Body())
	}
	if !bytes.Contains(resp.Body(), []byte("Resume Creation Plan")) {
		t.Errorf("ProposePlan markdown missing: %s", resp.Body())
	}
	if !bytes.Contains(resp.Body(), []byte("step_7")) {
		t.Errorf("ProposePlan comprehensive steps missing: %s", resp.Body())
	}
}

func TestExecutePlan_InvalidPlanRejected(t *testing.T) {
	h, _ := newTestEngine(t)
	id := createTestSession(t, h)

	body := []byte(`{"plan": {"steps": [
		{"id": "a", "action": "analyze_job", "description": "d", "dependencies": ["missing"]}
	], "rationale": "r"}}`)
	w := performJSON(h, "POST", "/api/sessions/"+id+"/execute", body)
	resp := w.Result()
	if resp.StatusCode() != 422 {
		t.Errorf("ExecutePlan invalid plan: status got %d, want 422", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("non-existent step")) {
		t.Errorf("ExecutePlan validation errors missing: %s", resp.Body())
	}
}

func TestRenderPDF_NoDraft(t *testing.T) {
	h, _ := newTestEngine(t)
	id := createTestSession(t, h)

	w := performJSON(h, "POST", "/api/sessions/"+id+"/render", []byte(`{}`))
	resp := w.Result()
	if resp.StatusCode() != 409 {
		t.Errorf("RenderPDF without draft: status got %d, want 409", resp.StatusCode())
	}
}
