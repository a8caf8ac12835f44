package sessionstore

import (
	"context"

	"resume-platform/internal/runtime/session"
)

// Store 会话持久化接口。实现：file（默认）、memory、postgres。
//
// Load 对不存在的会话返回 (nil, nil)，error 只表示真实 I/O 失败；
// Delete 返回是否确有删除，不存在不算错误。
type Store interface {
	// Save 保存会话记录（存在即覆盖）
	Save(ctx context.Context, record *session.Record) error
	// Load 按 ID 读取会话记录，不存在返回 (nil, nil)
	Load(ctx context.Context, sessionID string) (*session.Record, error)
	// List 列出全部会话的摘要
	List(ctx context.Context) ([]session.Summary, error)
	// Delete 删除会话，返回是否确有删除
	Delete(ctx context.Context, sessionID string) (bool, error)
}
