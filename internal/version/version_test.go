package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullInfo(t *testing.T) {
	info := FullInfo()
	assert.True(t, strings.HasPrefix(info, "lightspeed "+Version+" (commit: "))
	assert.Contains(t, info, "built: "+BuildDate)
	assert.NotEmpty(t, Commit())
	assert.Equal(t, Version, Info())
}
