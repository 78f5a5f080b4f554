package internal

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreMatcherMissingFile(t *testing.T) {
	m, err := NewIgnoreMatcher(memfs.New())
	require.NoError(t, err)

	assert.False(t, m.Match("/cat.png", false))
}

func TestIgnoreMatcherPatterns(t *testing.T) {
	fs := memFolder(t, map[string][]byte{
		IgnoreFilename: []byte("# screenshots are noise\n\n*.gif\nprivate/\n/raw.png\n!keep.gif\n"),
	})

	m, err := NewIgnoreMatcher(fs)
	require.NoError(t, err)

	assert.True(t, m.Match("/anim.gif", false))
	assert.False(t, m.Match("/keep.gif", false))
	assert.True(t, m.Match("/private", true))
	assert.True(t, m.Match("/raw.png", false))
	assert.False(t, m.Match("/sub/raw.png", false))
	assert.False(t, m.Match("/cat.png", false))
}

func TestIgnoreMatcherNil(t *testing.T) {
	var m *IgnoreMatcher
	assert.False(t, m.Match("/anything.png", false))
}
