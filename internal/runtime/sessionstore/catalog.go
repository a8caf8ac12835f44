package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"

	"resume-platform/internal/model/llm"
	"resume-platform/internal/runtime/session"
	"resume-platform/pkg/errors"
)

// Catalog 把 Store 包装成显式的字典式门面：按 ID 取、放、删、遍历。
// 与 Store 的宽容语义不同，DelItem 对不存在的会话报 ErrNotFound。
type Catalog struct {
	store Store
}

// NewCatalog 创建目录门面
func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// GetItem 按 ID 取会话记录，不存在返回 (nil, nil)
func (c *Catalog) GetItem(ctx context.Context, sessionID string) (*session.Record, error) {
	return c.store.Load(ctx, sessionID)
}

// GetItemWithConfig 按 ID 取会话记录并覆盖其模型配置（记录本身不回写）
func (c *Catalog) GetItemWithConfig(ctx context.Context, sessionID string, cfg llm.Config) (*session.Record, error) {
	record, err := c.store.Load(ctx, sessionID)
	if err != nil || record == nil {
		return record, err
	}
	record.ModelConfig = cfg
	return record, nil
}

// SetItem 以指定 ID 保存记录。ID 与记录不符时保存深拷贝并对齐 ID，
// 调用方持有的记录不被修改。
func (c *Catalog) SetItem(ctx context.Context, sessionID string, record *session.Record) error {
	if record == nil {
		return errors.Wrap(errors.ErrInvalidArg, "record must not be nil")
	}
	if record.SessionID == sessionID {
		return c.store.Save(ctx, record)
	}
	clone, err := cloneRecord(record)
	if err != nil {
		return err
	}
	clone.SessionID = sessionID
	return c.store.Save(ctx, clone)
}

// Add 以记录自身的 ID 保存（集合式别名）
func (c *Catalog) Add(ctx context.Context, record *session.Record) error {
	if record == nil {
		return errors.Wrap(errors.ErrInvalidArg, "record must not be nil")
	}
	return c.store.Save(ctx, record)
}

// DelItem 删除会话，不存在时返回 ErrNotFound
func (c *Catalog) DelItem(ctx context.Context, sessionID string) error {
	deleted, err := c.store.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.Wrapf(errors.ErrNotFound, "session %s", sessionID)
	}
	return nil
}

// IDs 返回全部会话 ID
func (c *Catalog) IDs(ctx context.Context) ([]string, error) {
	summaries, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.SessionID
	}
	return ids, nil
}

// Len 返回会话数量
func (c *Catalog) Len(ctx context.Context) (int, error) {
	summaries, err := c.store.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(summaries), nil
}

func cloneRecord(record *session.Record) (*session.Record, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("clone session %s: %w", record.SessionID, err)
	}
	var out session.Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone session %s: %w", record.SessionID, err)
	}
	return &out, nil
}
