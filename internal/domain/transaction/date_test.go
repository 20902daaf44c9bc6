package transaction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-09-01")
	require.NoError(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-09-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d.Time))
}

func TestParseDateRejectsBadInput(t *testing.T) {
	_, err := ParseDate("01/09/2025")
	assert.Error(t, err)

	_, err = ParseDate("2025-13-40")
	assert.Error(t, err)
}

func TestNewDateTruncatesToMidnightUTC(t *testing.T) {
	d := Today()

	assert.Equal(t, 0, d.Hour())
	assert.Equal(t, 0, d.Minute())
}

func TestUpdateRequestEmpty(t *testing.T) {
	assert.True(t, UpdateTransactionRequest{}.Empty())

	amount := int64(5)
	assert.False(t, UpdateTransactionRequest{Amount: &amount}.Empty())
}
