package utctime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUTCTime(t *testing.T) {
	t.Parallel()

	v := From(time.Date(2009, 12, 31, 23, 59, 59, 123_000_000, time.FixedZone("my", 3600)))
	assert.Equal(t, "2009-12-31T22:59:59.123Z", v.String())

	bytes, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"2009-12-31T22:59:59.123Z"`, string(bytes))

	var decoded UTCTime
	require.NoError(t, json.Unmarshal(bytes, &decoded))
	assert.Equal(t, v.String(), decoded.String())

	require.Error(t, json.Unmarshal([]byte(`"not-a-time"`), &decoded))
}
