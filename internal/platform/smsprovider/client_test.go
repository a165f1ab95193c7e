package smsprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_ClampsRate(t *testing.T) {
	for _, rps := range []int{0, -1} {
		c := NewClient("http://sms.example", "key", "library", rps)
		require.NotNil(t, c.limiter)
		assert.Positive(t, float64(c.limiter.Limit()), "rps=%d", rps)
	}
}
