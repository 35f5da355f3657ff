package cache

import (
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore Redis 未启用时的进程内 JSON 存储
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// GetJSON 读取并反序列化，过期条目视为不存在
func (s *MemoryStore) GetJSON(key string, dest interface{}) (bool, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 序列化写入，ttl<=0 表示不过期
func (s *MemoryStore) SetJSON(key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Del 删除条目
func (s *MemoryStore) Del(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}
