package server

import (
	"io/fs"
	"path/filepath"
)

// findFlowFiles recursively finds every .flow file under dir, so a host can
// organize its workflows into subdirectories instead of one flat folder.
func findFlowFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".flow" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
