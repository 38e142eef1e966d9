package protocol

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sensorlink/pkg/timestamp"
)

func TestEpoch_NumericCutoffMatchesCoerce(t *testing.T) {
	// Both normalizers split seconds from milliseconds on the same
	// constant, including at the edge of the range.
	values := []int64{
		1,
		1700000000,
		999999999999,
		1050000000000,
		timestamp.CoerceThreshold - 1,
		timestamp.CoerceThreshold,
		1700000000000,
	}
	for _, n := range values {
		var e Epoch
		require.NoError(t, e.UnmarshalJSON([]byte(strconv.FormatInt(n, 10))))
		assert.Equal(t, timestamp.Coerce(n), e.Ms(), "epoch %d", n)
	}
}

func TestEpoch_FractionalSeconds(t *testing.T) {
	var e Epoch
	require.NoError(t, e.UnmarshalJSON([]byte("1700000000.25")))
	assert.Equal(t, int64(1700000000250), e.Ms())
}
