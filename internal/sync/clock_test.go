package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTempoChangedRespectsThreshold(t *testing.T) {
	assert.False(t, tempoChanged(120.0, 120.05))
	assert.True(t, tempoChanged(120.0, 120.2))
	assert.True(t, tempoChanged(0, 120.0))
}

func TestDueForRealignRequiresDropAndCooldown(t *testing.T) {
	now := time.Now()
	assert.False(t, dueForRealign(now, now, false), "no realign without a drop")
	assert.False(t, dueForRealign(now, now.Add(5*time.Second), true), "too soon since last realign")
	assert.True(t, dueForRealign(now, now.Add(11*time.Second), true))
	assert.True(t, dueForRealign(time.Time{}, now, true), "zero-value last realign must not block the first realignment")
}
