package selection

import (
	"os"

	"github.com/slok/imgconv/internal/model"
)

// Result is the outcome of a file selection.
type Result struct {
	// Selected are the accepted files in insertion order without duplicates.
	Selected []string
	// Dropped are the paths that were silently discarded.
	Dropped []string
}

// Select filters paths by the input extension allow-list and existence, and
// removes duplicates keeping the first occurrence.
func Select(paths []string) Result {
	var res Result
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if !model.IsInputFile(p) || !isRegularFile(p) {
			res.Dropped = append(res.Dropped, p)
			continue
		}

		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		res.Selected = append(res.Selected, p)
	}

	return res
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
