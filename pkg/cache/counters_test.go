package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKeyUsesUTC(t *testing.T) {
	sp := time.FixedZone("BRT", -3*3600)
	lateEvening := time.Date(2026, 3, 10, 22, 30, 0, 0, sp)

	assert.Equal(t, "quota:post:u1:2026-03-11", dayKey("post", "u1", lateEvening))
}

func TestNextMidnight(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), nextMidnight(now))
}
