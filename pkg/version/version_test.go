package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danihelis/algorithms/pkg/version"
)

// TestString_DevelopmentBuild checks the banner for a build without ldflags.
func TestString_DevelopmentBuild(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "segtree dev (commit: none, built: unknown)", version.String())
}
