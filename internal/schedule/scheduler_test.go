package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var order []string

	m.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	m.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, m.Pending())

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_StoppedTaskNeverRuns(t *testing.T) {
	m := NewManual(time.Time{})
	fired := false

	task := m.AfterFunc(time.Second, func() { fired = true })
	require.True(t, task.Stop())
	assert.False(t, task.Stop(), "second stop reports not pending")

	m.Advance(time.Minute)
	assert.False(t, fired)
}

func TestManual_CallbackCanScheduleWithinSameAdvance(t *testing.T) {
	m := NewManual(time.Time{})
	var count int

	var chain func()
	chain = func() {
		count++
		if count < 3 {
			m.AfterFunc(time.Second, chain)
		}
	}
	m.AfterFunc(time.Second, chain)

	m.Advance(10 * time.Second)
	assert.Equal(t, 3, count)
}

func TestManual_RunNext(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	assert.False(t, m.RunNext())

	fired := false
	m.AfterFunc(5*time.Minute, func() { fired = true })
	require.True(t, m.RunNext())
	assert.True(t, fired)
	assert.Equal(t, start.Add(5*time.Minute), m.Now())
}

func TestReal_AfterFuncAndStop(t *testing.T) {
	var fired atomic.Bool
	done := make(chan struct{})

	NewReal().AfterFunc(5*time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
	assert.True(t, fired.Load())

	task := NewReal().AfterFunc(time.Hour, func() {})
	assert.True(t, task.Stop())
}
