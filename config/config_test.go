package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	input := []byte(`[core]
	bare = false
[branch "master"]
	remote = origin
	merge = refs/heads/master
`)

	c, err := Unmarshal(input)
	require.NoError(t, err)

	br, ok := c.Branches["master"]
	require.True(t, ok)
	assert.Equal(t, "origin", br.Remote)
	assert.Equal(t, "refs/heads/master", br.Merge)
}

func TestSetBranchAndMarshal(t *testing.T) {
	c := NewConfig()
	c.SetBranch(&Branch{Name: "feature", Remote: "origin", Merge: "refs/heads/feature"})

	out := c.Marshal()

	reparsed, err := Unmarshal(out)
	require.NoError(t, err)

	br := reparsed.Branches["feature"]
	require.NotNil(t, br)
	assert.Equal(t, "origin", br.Remote)
	assert.Equal(t, "refs/heads/feature", br.Merge)
}

func TestSetBranchUpdatesExisting(t *testing.T) {
	c := NewConfig()
	c.SetBranch(&Branch{Name: "main", Remote: "origin", Merge: "refs/heads/main"})
	c.SetBranch(&Branch{Name: "main", Remote: "upstream", Merge: "refs/heads/main"})

	assert.Equal(t, "upstream", c.Branches["main"].Remote)
}
