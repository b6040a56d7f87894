// Package store 提供 core.Store / core.KeyValueStore / core.VectorIndex 的进程内实现。
//
// 接口定义在 core 包：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	var vs core.VectorIndex = store.NewMemoryVectorService()
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/playgcn/core"
)

// MemoryStore 是内存实现的 KeyValueStore，进程退出后数据丢失。
// 用于保存曲目热度排行（有序集合）与曲目元数据（哈希）。
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	hashes map[string]map[string][]byte
	zsets  map[string]*zset
}

// zset 记录成员分数及首次写入序号，用于同分排序。
type zset struct {
	scores map[string]float64
	seq    map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string][]byte),
		hashes: make(map[string]map[string][]byte),
		zsets:  make(map[string]*zset),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.hashes, key)
	delete(m.zsets, key)
	return nil
}

// BatchGet 不存在的 key 不出现在结果中。
func (m *MemoryStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	z, ok := m.zsets[key]
	if !ok {
		z = &zset{scores: make(map[string]float64), seq: make(map[string]int)}
		m.zsets[key] = z
	}
	if _, exists := z.seq[member]; !exists {
		z.seq[member] = len(z.seq)
	}
	z.scores[member] = score
	return nil
}

// ZRange 返回按分数降序排列的 [start, stop] 区间成员（闭区间），stop < 0 表示到末尾。
func (m *MemoryStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	z, ok := m.zsets[key]
	if !ok || len(z.scores) == 0 {
		return nil, nil
	}

	members := make([]string, 0, len(z.scores))
	for member := range z.scores {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := z.scores[members[i]], z.scores[members[j]]
		if si != sj {
			return si > sj
		}
		return z.seq[members[i]] < z.seq[members[j]]
	})

	n := int64(len(members))
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}
	return members[start : stop+1], nil
}

func (m *MemoryStore) ZScore(ctx context.Context, key string, member string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	z, ok := m.zsets[key]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	score, ok := z.scores[member]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	return score, nil
}

func (m *MemoryStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.hashes[key][field]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return v, nil
}

func (m *MemoryStore) HSet(ctx context.Context, key, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string][]byte)
		m.hashes[key] = h
	}
	h[field] = value
	return nil
}

func (m *MemoryStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]byte, len(m.hashes[key]))
	for field, v := range m.hashes[key] {
		result[field] = v
	}
	return result, nil
}

var _ core.KeyValueStore = (*MemoryStore)(nil)
