package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3*3600))
	c := NewFixed(at)

	assert.True(t, c.Now().Equal(at))
	assert.Equal(t, time.UTC, c.Now().Location())
}

func TestSystem(t *testing.T) {
	before := time.Now()
	got := NewSystem().Now()
	assert.False(t, got.Before(before.Add(-time.Second)))
	assert.Equal(t, time.UTC, got.Location())
}

func TestManual(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewManual(start)

	m.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), m.Now())

	m.Set(start)
	assert.Equal(t, start, m.Now())
}
