package cache

import (
	"fmt"
	"prompt_lab_backend/pkg/monitoring"
	"sync"
	"time"
)

// 缓存键约定：全量课程目录、单课程树、单用户进度
const (
	CoursesKey        = "courses"
	courseKeyPrefix   = "course_"
	progressKeyPrefix = "progress_"
)

func CourseKey(courseID uint) string {
	return fmt.Sprintf("%s%d", courseKeyPrefix, courseID)
}

func ProgressKey(userID uint) string {
	return fmt.Sprintf("%s%d", progressKeyPrefix, userID)
}

type entry struct {
	value     interface{}
	fetchedAt time.Time
}

// Cache 进程内TTL缓存，避免对慢变数据的重复查询。
// 在应用装配时创建一次并注入各服务，不使用包级单例。
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetOrFetch 命中且未过期时直接返回缓存值；否则调用fetch并缓存结果。
// fetch失败时缓存保持原样，错误原样返回。
// 并发取数不做去重：后完成者覆盖先完成者（last-write-wins）。
func (c *Cache) GetOrFetch(key string, fetch func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		monitoring.CacheHitCounter.WithLabelValues("hit").Inc()
		return e.value, nil
	}
	c.mu.Unlock()
	monitoring.CacheHitCounter.WithLabelValues("miss").Inc()

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, fetchedAt: c.now()}
	c.mu.Unlock()

	return value, nil
}

// Invalidate 清除指定键；不传键时清空全部缓存。
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		c.entries = make(map[string]entry)
		return
	}
	for _, key := range keys {
		delete(c.entries, key)
	}
}
