package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetOrFetchWithinTTL(t *testing.T) {
	c := New(5 * time.Minute)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return "catalog", nil
	}

	v1, err := c.GetOrFetch(CoursesKey, fetch)
	assert.NoError(t, err)
	assert.Equal(t, "catalog", v1)

	v2, err := c.GetOrFetch(CoursesKey, fetch)
	assert.NoError(t, err)
	assert.Equal(t, "catalog", v2)

	assert.Equal(t, 1, calls, "TTL窗口内同键只应取数一次")
}

func TestGetOrFetchAfterTTL(t *testing.T) {
	c := New(5 * time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := c.GetOrFetch(CourseKey(1), fetch)
	assert.NoError(t, err)

	// 过期后必须重新取数
	current = current.Add(5*time.Minute + time.Second)
	v, err := c.GetOrFetch(CourseKey(1), fetch)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, v)
}

func TestFetchErrorLeavesCacheUntouched(t *testing.T) {
	c := New(5 * time.Minute)

	_, err := c.GetOrFetch(ProgressKey(7), func() (interface{}, error) {
		return nil, errors.New("remote error")
	})
	assert.Error(t, err)

	calls := 0
	v, err := c.GetOrFetch(ProgressKey(7), func() (interface{}, error) {
		calls++
		return "rows", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "rows", v)
	assert.Equal(t, 1, calls, "失败不应写入缓存，下次读取需要重新取数")
}

func TestInvalidateSingleKey(t *testing.T) {
	c := New(5 * time.Minute)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	c.GetOrFetch(CoursesKey, fetch)
	c.Invalidate(CoursesKey)
	c.GetOrFetch(CoursesKey, fetch)

	assert.Equal(t, 2, calls)
}

func TestInvalidateAll(t *testing.T) {
	c := New(5 * time.Minute)

	callsA, callsB := 0, 0
	c.GetOrFetch("a", func() (interface{}, error) { callsA++; return 1, nil })
	c.GetOrFetch("b", func() (interface{}, error) { callsB++; return 2, nil })

	c.Invalidate()

	c.GetOrFetch("a", func() (interface{}, error) { callsA++; return 1, nil })
	c.GetOrFetch("b", func() (interface{}, error) { callsB++; return 2, nil })

	assert.Equal(t, 2, callsA)
	assert.Equal(t, 2, callsB)
}
