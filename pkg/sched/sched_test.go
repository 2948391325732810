package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunExecutesDueTasksInDeadlineOrder(t *testing.T) {
	r := New()
	var order []string
	base := time.Now()
	r.AddAt("b", base.Add(20*time.Millisecond), func() { order = append(order, "b") })
	r.AddAt("a", base.Add(10*time.Millisecond), func() { order = append(order, "a") })
	r.AddAt("c", base.Add(time.Hour), func() { order = append(order, "c") })

	ran := r.Run(base.Add(30 * time.Millisecond))
	assert.Equal(t, 2, ran)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, r.Len())
}

func TestAddReplacesExistingKey(t *testing.T) {
	r := New()
	calls := 0
	base := time.Now()
	r.AddAt("keepalive", base.Add(time.Second), func() { calls++ })
	r.AddAt("keepalive", base.Add(2*time.Second), func() { calls++ })

	assert.Equal(t, 1, r.Len())
	r.Run(base.Add(time.Second))
	assert.Equal(t, 0, calls)
	r.Run(base.Add(2 * time.Second))
	assert.Equal(t, 1, calls)
}

func TestRemoveCancelsTask(t *testing.T) {
	r := New()
	fired := false
	r.Add("x", time.Millisecond, func() { fired = true })
	assert.True(t, r.Remove("x"))
	assert.False(t, r.Remove("x"))
	r.Run(time.Now().Add(time.Second))
	assert.False(t, fired)
}

func TestNextDeadlineReflectsEarliestTask(t *testing.T) {
	r := New()
	_, ok := r.NextDeadline()
	assert.False(t, ok)

	base := time.Now()
	r.AddAt("later", base.Add(time.Minute), func() {})
	r.AddAt("sooner", base.Add(time.Second), func() {})

	d, ok := r.NextDeadline()
	assert.True(t, ok)
	assert.WithinDuration(t, base.Add(time.Second), d, time.Millisecond)
}
