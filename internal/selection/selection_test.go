package selection_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/imgconv/internal/selection"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}

func TestSelect(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.png")
	b := touch(t, dir, "B.JPG")
	c := touch(t, dir, "c.tif")
	txt := touch(t, dir, "notes.txt")
	missing := filepath.Join(dir, "missing.png")
	subdir := filepath.Join(dir, "folder.png")
	require.NoError(t, os.Mkdir(subdir, 0o755))

	tests := map[string]struct {
		paths       []string
		expSelected []string
		expDropped  []string
	}{
		"Empty input should select nothing.": {},

		"Valid files should be selected in order.": {
			paths:       []string{c, a, b},
			expSelected: []string{c, a, b},
		},

		"Duplicates should be removed keeping the first occurrence.": {
			paths:       []string{a, b, a, c, b},
			expSelected: []string{a, b, c},
		},

		"Unsupported, missing and directory paths should be dropped.": {
			paths:       []string{txt, a, missing, subdir},
			expSelected: []string{a},
			expDropped:  []string{txt, missing, subdir},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			res := selection.Select(test.paths)

			assert.Equal(test.expSelected, res.Selected)
			assert.Equal(test.expDropped, res.Dropped)
		})
	}
}
