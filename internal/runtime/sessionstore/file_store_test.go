package sessionstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resume-platform/internal/agent/memory"
	"resume-platform/internal/model/llm"
	"resume-platform/internal/runtime/session"
)

func testRecord(id string) *session.Record {
	now := time.Now().UTC().Truncate(time.Second)
	return &session.Record{
		SessionID:     id,
		Name:          "techco-ml",
		JobInfo:       "Senior ML Engineer at TechCo",
		CandidateInfo: "5 years Python, ML experience",
		Mode:          session.ModeManual,
		History: []memory.Turn{
			{Role: memory.RoleUser, Content: "expand my first bullet", Timestamp: now},
			{Role: memory.RoleAssistant, Content: "done", Timestamp: now},
		},
		State: map[string]any{
			"drafts":     map[string]any{"resume": "# Resume"},
			"expansions": map[string]any{"led team": "Led a team of 5 engineers"},
		},
		Snapshots: []session.Snapshot{
			{Timestamp: now, State: map[string]any{"drafts": map[string]any{}}, TurnCount: 1},
		},
		CreatedAt:   now,
		UpdatedAt:   now,
		ModelConfig: llm.Config{Provider: "openai", Model: "gpt-4", Temperature: 0.3},
	}
}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	rec := testRecord("abc123def456aa00")

	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected record")
	}
	if loaded.SessionID != rec.SessionID || loaded.Mode != rec.Mode || loaded.Name != rec.Name {
		t.Errorf("identity: %+v", loaded)
	}
	if len(loaded.History) != 2 || loaded.History[0].Content != "expand my first bullet" {
		t.Errorf("history: %+v", loaded.History)
	}
	drafts, ok := loaded.State["drafts"].(map[string]any)
	if !ok || drafts["resume"] != "# Resume" {
		t.Errorf("state: %+v", loaded.State)
	}
	if loaded.ModelConfig.Model != "gpt-4" {
		t.Errorf("model config: %+v", loaded.ModelConfig)
	}
	if len(loaded.Snapshots) != 1 || loaded.Snapshots[0].TurnCount != 1 {
		t.Errorf("snapshots: %+v", loaded.Snapshots)
	}
}

func TestFileStore_WritesBothFormats(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	rec := testRecord("abc123def456aa01")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, name := range []string{rec.SessionID + ".gob", rec.SessionID + ".json"} {
		if _, err := os.Stat(filepath.Join(store.Dir(), name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	// 两种表示在每次 Save 后必须一致：JSON 镜像逐字段等于 gob 权威副本
	opaque, err := store.Load(ctx, rec.SessionID)
	if err != nil || opaque == nil {
		t.Fatalf("load: %v %v", opaque, err)
	}
	raw, err := os.ReadFile(filepath.Join(store.Dir(), rec.SessionID+".json"))
	if err != nil {
		t.Fatalf("read mirror: %v", err)
	}
	var mirror session.Record
	if err := json.Unmarshal(raw, &mirror); err != nil {
		t.Fatalf("decode mirror: %v", err)
	}

	if mirror.SessionID != opaque.SessionID || mirror.Name != opaque.Name || mirror.Mode != opaque.Mode {
		t.Errorf("identity diverged: %+v vs %+v", mirror, opaque)
	}
	if mirror.JobInfo != opaque.JobInfo || mirror.CandidateInfo != opaque.CandidateInfo {
		t.Error("inputs diverged between mirror and opaque record")
	}
	if len(mirror.History) != len(opaque.History) {
		t.Fatalf("history length diverged: %d vs %d", len(mirror.History), len(opaque.History))
	}
	for i := range mirror.History {
		if mirror.History[i].Role != opaque.History[i].Role || mirror.History[i].Content != opaque.History[i].Content {
			t.Errorf("turn %d diverged: %+v vs %+v", i, mirror.History[i], opaque.History[i])
		}
	}
	mirrorDrafts, _ := mirror.State["drafts"].(map[string]any)
	opaqueDrafts, _ := opaque.State["drafts"].(map[string]any)
	if mirrorDrafts["resume"] != opaqueDrafts["resume"] {
		t.Errorf("state diverged: %v vs %v", mirrorDrafts, opaqueDrafts)
	}
	if mirror.ModelConfig != opaque.ModelConfig {
		t.Errorf("model config diverged: %+v vs %+v", mirror.ModelConfig, opaque.ModelConfig)
	}
	if len(mirror.Snapshots) != len(opaque.Snapshots) {
		t.Errorf("snapshots diverged: %d vs %d", len(mirror.Snapshots), len(opaque.Snapshots))
	}
	if !mirror.CreatedAt.Equal(opaque.CreatedAt) || !mirror.UpdatedAt.Equal(opaque.UpdatedAt) {
		t.Error("timestamps diverged between mirror and opaque record")
	}
}

func TestFileStore_LoadMissingIsNil(t *testing.T) {
	store := newTestFileStore(t)
	rec, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("missing session must not error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil, got %+v", rec)
	}
}

func TestFileStore_SaveIdempotent(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	rec := testRecord("abc123def456aa02")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.History = append(rec.History, memory.Turn{Role: memory.RoleUser, Content: "more"})
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("second save: %v", err)
	}
	loaded, err := store.Load(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.History) != 3 {
		t.Errorf("overwrite expected, got %d turns", len(loaded.History))
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("no duplicate entries expected, got %d", len(list))
	}
}

func TestFileStore_ListSkipsCorruptMirror(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, testRecord("abc123def456aa03")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("corrupt mirror should be skipped, got %d", len(list))
	}
	sum := list[0]
	if sum.SessionID != "abc123def456aa03" || sum.TurnCount != 2 || sum.Model != "gpt-4" {
		t.Errorf("summary: %+v", sum)
	}
}

func TestFileStore_Delete(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	rec := testRecord("abc123def456aa04")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	deleted, err := store.Delete(ctx, rec.SessionID)
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if loaded, _ := store.Load(ctx, rec.SessionID); loaded != nil {
		t.Error("record should be gone")
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), rec.SessionID+".json")); !os.IsNotExist(err) {
		t.Error("json mirror should be gone")
	}

	deleted, err = store.Delete(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("second delete must not error: %v", err)
	}
	if deleted {
		t.Error("second delete should report false")
	}
}
