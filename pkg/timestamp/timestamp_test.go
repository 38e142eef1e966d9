package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToUnixMs_ZeroTime(t *testing.T) {
	assert.Equal(t, int64(0), ToUnixMs(time.Time{}))
}

func TestFromUnixMs_RoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	assert.True(t, FromUnixMs(ToUnixMs(now)).Equal(now))
}

func TestFromUnixMs_Zero(t *testing.T) {
	assert.True(t, FromUnixMs(0).IsZero())
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		epoch int64
		want  int64
	}{
		{"zero is unset", 0, 0},
		{"negative is unset", -5, 0},
		{"seconds rescaled", 1700000000, 1700000000000},
		{"milliseconds preserved", 1700000000000, 1700000000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.epoch))
		})
	}
}

func TestWithin(t *testing.T) {
	now := int64(10_000)

	assert.True(t, Within(9_000, now, 2000))
	assert.True(t, Within(11_500, now, 2000), "future timestamps inside the window pass")
	assert.False(t, Within(7_000, now, 2000))
	assert.False(t, Within(0, now, 2000), "unset timestamp never passes")
}

func TestAge(t *testing.T) {
	assert.Equal(t, int64(500), Age(1_000, 1_500))
	assert.Equal(t, int64(-200), Age(1_700, 1_500))
	assert.Equal(t, int64(0), Age(0, 1_500))
}
