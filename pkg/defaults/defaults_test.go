package defaults

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	assert.True(t, strings.HasPrefix(ua, ToolName+"/"))
	assert.True(t, strings.HasSuffix(ua, Version))
}

func TestServerBounds(t *testing.T) {
	assert.Greater(t, RateBurst, RateLimit, "burst must exceed steady-state rate")
	assert.Less(t, ReadHeaderTimeout, ReadTimeout)
	assert.Greater(t, MaxBodyBytes, 0)
}
