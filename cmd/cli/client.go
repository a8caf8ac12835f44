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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

func apiBaseURL() string {
	if u := os.Getenv("RESUME_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(120 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", uuid.NewString())
}

func getHealth() (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/health: %s", resp.String())
	}
	return out, nil
}

func createSession(jobInfo, candidateInfo, name string) (map[string]interface{}, error) {
	body := map[string]string{
		"job_info":       jobInfo,
		"candidate_info": candidateInfo,
	}
	if name != "" {
		body["name"] = name
	}
	var out map[string]interface{}
	resp, err := newClient().R().
		SetBody(body).
		SetResult(&out).
		Post("/api/sessions")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("POST /api/sessions: %s", resp.String())
	}
	return out, nil
}

func importPDF(jobInfo, pdfPath, name string) (map[string]interface{}, error) {
	var out map[string]interface{}
	req := newClient().R().
		SetFile("file", pdfPath).
		SetFormData(map[string]string{"job_info": jobInfo}).
		SetResult(&out)
	if name != "" {
		req.SetFormData(map[string]string{"name": name})
	}
	resp, err := req.Post("/api/sessions/import")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("POST /api/sessions/import: %s", resp.String())
	}
	return out, nil
}

func listSessions() ([]map[string]interface{}, error) {
	var out struct {
		Sessions []map[string]interface{} `json:"sessions"`
	}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/sessions")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/sessions: %s", resp.String())
	}
	return out.Sessions, nil
}

func getSession(id string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/sessions/" + id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/sessions/%s: %s", id, resp.String())
	}
	return out, nil
}

func deleteSession(id string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Delete("/api/sessions/" + id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("DELETE /api/sessions/%s: %s", id, resp.String())
	}
	return out, nil
}

func postChat(id, message string) (string, error) {
	var out struct {
		Response  string `json:"response"`
		Persisted bool   `json:"persisted"`
	}
	resp, err := newClient().R().
		SetBody(map[string]string{"message": message}).
		SetResult(&out).
		Post("/api/sessions/" + id + "/chat")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("POST chat: %s", resp.String())
	}
	if !out.Persisted {
		fmt.Fprintln(os.Stderr, "(警告: 本轮对话未持久化)")
	}
	return out.Response, nil
}

func switchMode(id, mode string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetBody(map[string]string{"mode": mode}).
		SetResult(&out).
		Post("/api/sessions/" + id + "/mode")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST mode: %s", resp.String())
	}
	return out, nil
}

func proposePlan(id, mode string) (json.RawMessage, string, error) {
	var out struct {
		Plan     json.RawMessage `json:"plan"`
		Markdown string          `json:"markdown"`
	}
	resp, err := newClient().R().
		SetBody(map[string]string{"mode": mode}).
		SetResult(&out).
		Post("/api/sessions/" + id + "/plan")
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("POST plan: %s", resp.String())
	}
	return out.Plan, out.Markdown, nil
}

func revisePlan(id string, plan json.RawMessage, instruction string) (json.RawMessage, string, error) {
	var out struct {
		Plan     json.RawMessage `json:"plan"`
		Markdown string          `json:"markdown"`
	}
	resp, err := newClient().R().
		SetBody(map[string]interface{}{
			"plan":        plan,
			"instruction": instruction,
		}).
		SetResult(&out).
		Post("/api/sessions/" + id + "/plan/revise")
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("POST plan/revise: %s", resp.String())
	}
	return out.Plan, out.Markdown, nil
}

func executePlan(id string, plan json.RawMessage) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetBody(map[string]interface{}{"plan": plan}).
		SetResult(&out).
		Post("/api/sessions/" + id + "/execute")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST execute: %s", resp.String())
	}
	return out, nil
}

func createResume(id, mode string) (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
		Resume    string `json:"resume"`
	}
	resp, err := newClient().R().
		SetBody(map[string]string{"mode": mode}).
		SetResult(&out).
		Post("/api/sessions/" + id + "/resume")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("POST resume: %s", resp.String())
	}
	return out.Resume, nil
}

func renderPDF(id, fileName string) (map[string]interface{}, error) {
	body := map[string]string{}
	if fileName != "" {
		body["file_name"] = fileName
	}
	var out map[string]interface{}
	resp, err := newClient().R().
		SetBody(body).
		SetResult(&out).
		Post("/api/sessions/" + id + "/render")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST render: %s", resp.String())
	}
	return out, nil
}

func prettyJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
