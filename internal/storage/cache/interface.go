package cache

import (
	"context"
	"time"
)

// Store 缓存存储接口。search 等 worker 用它缓存外部查询结果。
type Store interface {
	// Set 设置缓存，expiration <= 0 表示不过期
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get 获取缓存并反序列化到 dest，未命中返回 ErrNotFound
	Get(ctx context.Context, key string, dest interface{}) error
	// Delete 删除缓存
	Delete(ctx context.Context, key string) error
	// Exists 检查缓存是否存在
	Exists(ctx context.Context, key string) (bool, error)
	// Clear 清除所有缓存
	Clear(ctx context.Context) error
	// Close 关闭缓存连接
	Close() error
}
