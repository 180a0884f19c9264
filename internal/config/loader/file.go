package loader

import (
	"errors"
	"fmt"
	"io/fs"
)

// File loads one configuration file in a fixed format.
type File struct {
	fsys   ReadFileFS
	path   string
	format Format
}

// NewFile creates a loader for path. A nil fsys reads from the OS.
func NewFile(fsys ReadFileFS, path string, format Format) *File {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &File{fsys: fsys, path: path, format: format}
}

// Load reads and decodes the file. A missing file is not an error.
func (f *File) Load() (map[string]any, error) {
	data, err := f.fsys.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return f.format.Decode(f.path, data)
}
