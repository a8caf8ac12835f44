package session

import (
	"testing"
)

func TestState_FixedBuckets(t *testing.T) {
	s := NewState()
	for _, b := range []string{"candidate", "job", "extracted_entities", "expansions", "distillations", "drafts", "searches"} {
		m, ok := s.Get(b).(map[string]any)
		if !ok {
			t.Errorf("bucket %s should be an empty map, got %T", b, s.Get(b))
			continue
		}
		if len(m) != 0 {
			t.Errorf("bucket %s should start empty", b)
		}
	}
}

func TestState_GetOr(t *testing.T) {
	s := NewState()
	if got := s.GetOr("no_such_key", "fallback"); got != "fallback" {
		t.Errorf("GetOr miss: got %v", got)
	}
	s.Set("custom", 42)
	if got := s.GetOr("custom", 0); got != 42 {
		t.Errorf("GetOr hit: got %v", got)
	}
}

func TestState_Update_MergesMaps(t *testing.T) {
	s := NewState()
	s.Update(map[string]any{"drafts": map[string]any{"resume": "v1"}})
	s.Update(map[string]any{"drafts": map[string]any{"cover_letter": "v1"}})
	drafts := s.Bucket("drafts")
	if drafts["resume"] != "v1" || drafts["cover_letter"] != "v1" {
		t.Errorf("map updates should merge, got %v", drafts)
	}
}

func TestState_Update_ReplacesNonMap(t *testing.T) {
	s := NewState()
	s.Update(map[string]any{"drafts": "plain string"})
	if s.Get("drafts") != "plain string" {
		t.Errorf("non-map value should replace bucket, got %v", s.Get("drafts"))
	}
	// 替换后再次以 map 更新，整体覆盖
	s.Update(map[string]any{"drafts": map[string]any{"resume": "v2"}})
	if s.Bucket("drafts")["resume"] != "v2" {
		t.Errorf("map should replace non-map, got %v", s.Get("drafts"))
	}
}

func TestState_Snapshot_Independent(t *testing.T) {
	s := NewState()
	s.SetIn("expansions", "led team", "Led a team of 5 engineers")
	snap := s.Snapshot()

	s.SetIn("expansions", "led team", "changed")
	s.SetIn("drafts", "resume", "new draft")

	expansions := snap["expansions"].(map[string]any)
	if expansions["led team"] != "Led a team of 5 engineers" {
		t.Errorf("snapshot should be frozen, got %v", expansions)
	}
	drafts := snap["drafts"].(map[string]any)
	if len(drafts) != 0 {
		t.Errorf("snapshot should not see later writes, got %v", drafts)
	}
}

func TestState_Restore_FillsMissingBuckets(t *testing.T) {
	s := NewState()
	s.Restore(map[string]any{"drafts": map[string]any{"resume": "v1"}})
	if s.Bucket("drafts")["resume"] != "v1" {
		t.Error("restored bucket lost")
	}
	if s.Bucket("candidate") == nil {
		t.Error("missing fixed buckets should be recreated")
	}
}
