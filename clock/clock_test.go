package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f := NewFake(start)
	assert.Equal(t, start, f.Now())

	got := f.Advance(30 * time.Minute)
	assert.Equal(t, start.Add(30*time.Minute), got)
	assert.Equal(t, got, f.Now())

	f.Set(start)
	assert.Equal(t, start, f.Now())
}

func TestOrDefaultsToReal(t *testing.T) {
	_, ok := Or(nil).(Real)
	assert.True(t, ok)

	f := NewFake(time.Time{})
	assert.Same(t, f, Or(f))
}
