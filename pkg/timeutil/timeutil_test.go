package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromMillisToMillisRoundTrip(t *testing.T) {
	ms := int64(1741608000000)
	assert.Equal(t, ms, ToMillis(FromMillis(ms)))
}

func TestFromMillis(t *testing.T) {
	got := FromMillis(0)
	assert.Equal(t, time.Unix(0, 0).UTC(), got.UTC())
}

func TestDayKey(t *testing.T) {
	instant := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-10", DayKey(instant, time.UTC))

	// The same instant is the next calendar day further east.
	almaty := time.FixedZone("ALMT", 5*3600)
	assert.Equal(t, "2025-03-11", DayKey(instant, almaty))
}

func TestOrNow(t *testing.T) {
	explicit := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, explicit, OrNow(explicit))

	defaulted := OrNow(time.Time{})
	assert.False(t, defaulted.IsZero())
	assert.WithinDuration(t, time.Now(), defaulted, time.Second)
}
