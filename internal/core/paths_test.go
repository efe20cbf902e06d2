package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cloudbox/internal/models"
)

func TestNormalizePath(t *testing.T) {
	valid := map[string]string{
		"":                      "",
		"file.txt":              "file.txt",
		"docs/a.txt":            "docs/a.txt",
		"docs/":                 "docs",
		"deep/nested/path.jpg":  "deep/nested/path.jpg",
		"shares/x@y.com/f.txt":  "shares/x@y.com/f.txt",
		"name with spaces.txt":  "name with spaces.txt",
		"trailing/slash/inner/": "trailing/slash/inner",
	}
	for in, want := range valid {
		got, err := NormalizePath(in)
		require.NoError(t, err, "input %q", in)
		require.Equal(t, want, got, "input %q", in)
	}

	invalid := []string{
		"../file.txt",
		"folder/../file.txt",
		"..",
		"/absolute.txt",
		"a//b",
		"a/./b",
		"/",
	}
	for _, in := range invalid {
		_, err := NormalizePath(in)
		require.ErrorIs(t, err, ErrInvalidPath, "input %q", in)
	}
}

func TestTopSegmentAndParent(t *testing.T) {
	require.Equal(t, "docs", topSegment("docs/a/b.txt"))
	require.Equal(t, "file.txt", topSegment("file.txt"))
	require.Equal(t, "docs/a", parentPath("docs/a/b.txt"))
	require.Equal(t, "", parentPath("file.txt"))
}

func TestGoverningEntry(t *testing.T) {
	user := &models.User{
		Username: "alice@example.com",
		Paths: map[string]models.PathEntry{
			"":       {Kind: models.TargetOwned, IsDir: true, Writable: true},
			"docs":   {Kind: models.TargetOwned, Target: "docs", IsDir: true, Writable: true},
			"docs/a": {Kind: models.TargetOwned, Target: "docs/a", Writable: true},
		},
	}

	p, entry, ok := governingEntry(user, "docs/a")
	require.True(t, ok)
	require.Equal(t, "docs/a", p)
	require.False(t, entry.IsDir)

	p, entry, ok = governingEntry(user, "docs/new/sub/file.txt")
	require.True(t, ok)
	require.Equal(t, "docs", p)
	require.True(t, entry.IsDir)

	p, _, ok = governingEntry(user, "elsewhere/file.txt")
	require.True(t, ok)
	require.Equal(t, "", p)
}

func TestListUnderAndHasChildren(t *testing.T) {
	user := &models.User{
		Username: "u@example.com",
		Paths: map[string]models.PathEntry{
			"":           {IsDir: true},
			"docs":       {IsDir: true},
			"docs/a.txt": {},
			"docs2":      {IsDir: true},
		},
	}

	under := listUnder(user, "docs")
	require.ElementsMatch(t, []string{"docs", "docs/a.txt"}, under)

	require.True(t, hasChildren(user, "docs"))
	require.False(t, hasChildren(user, "docs2"))
}
