package samples

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Discover walks root in lexical order and returns up to limit image paths.
// Hidden files are skipped. A limit <= 0 means no limit.
func Discover(root string, limit int) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || !isImageExt(strings.ToLower(filepath.Ext(name))) {
			return nil
		}
		out = append(out, filepath.ToSlash(path))
		if limit > 0 && len(out) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp":
		return true
	default:
		return false
	}
}
