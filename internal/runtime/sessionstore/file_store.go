package sessionstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-platform/internal/runtime/session"
	"resume-platform/pkg/log"
)

func init() {
	// State 与 Turn.Metadata 中的 interface 值需要注册具体类型
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// FileStore 文件系统会话存储：每个会话写两份 —— gob 为权威格式，
// JSON 为人类可读镜像。读取只认 gob，镜像仅供外部工具检查与列表扫描。
type FileStore struct {
	dataDir string
	logger  *log.Logger
}

// NewFileStore 创建文件存储，目录不存在时创建
func NewFileStore(dataDir string, logger *log.Logger) (*FileStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".resume_sessions")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", dataDir, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{dataDir: dataDir, logger: logger}, nil
}

// Dir 返回数据目录
func (s *FileStore) Dir() string { return s.dataDir }

func (s *FileStore) gobPath(id string) string  { return filepath.Join(s.dataDir, id+".gob") }
func (s *FileStore) jsonPath(id string) string { return filepath.Join(s.dataDir, id+".json") }

// Save 实现 Store.Save：先写 gob，再写 JSON 镜像，均为临时文件后原子 rename
func (s *FileStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.SessionID == "" {
		return fmt.Errorf("record must have a session id")
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("encode session %s: %w", record.SessionID, err)
	}
	if err := writeAtomic(s.gobPath(record.SessionID), buf.Bytes()); err != nil {
		return fmt.Errorf("write session %s: %w", record.SessionID, err)
	}

	mirror, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session mirror %s: %w", record.SessionID, err)
	}
	if err := writeAtomic(s.jsonPath(record.SessionID), mirror); err != nil {
		return fmt.Errorf("write session mirror %s: %w", record.SessionID, err)
	}
	return nil
}

// Load 实现 Store.Load，不存在返回 (nil, nil)
func (s *FileStore) Load(ctx context.Context, sessionID string) (*session.Record, error) {
	data, err := os.ReadFile(s.gobPath(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	var record session.Record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &record, nil
}

// List 实现 Store.List：扫描 JSON 镜像，损坏的文件跳过并告警
func (s *FileStore) List(ctx context.Context) ([]session.Summary, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var out []session.Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dataDir, entry.Name()))
		if err != nil {
			s.logger.Warn("skip unreadable session mirror", "file", entry.Name(), "error", err)
			continue
		}
		var record session.Record
		if err := json.Unmarshal(data, &record); err != nil {
			s.logger.Warn("skip corrupt session mirror", "file", entry.Name(), "error", err)
			continue
		}
		out = append(out, session.Summarize(&record))
	}
	return out, nil
}

// Delete 实现 Store.Delete：两种格式都删，任一存在即视为删除成功
func (s *FileStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	deleted := false
	for _, path := range []string{s.gobPath(sessionID), s.jsonPath(sessionID)} {
		err := os.Remove(path)
		if err == nil {
			deleted = true
			continue
		}
		if !os.IsNotExist(err) {
			return deleted, fmt.Errorf("delete session %s: %w", sessionID, err)
		}
	}
	return deleted, nil
}

// writeAtomic 临时文件 + rename，避免读到半写状态
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
