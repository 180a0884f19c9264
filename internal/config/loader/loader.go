// Package loader reads configuration sources into generic maps.
//
// File loaders parse TOML and YAML; the environment loader maps prefixed
// variables onto dotted setting paths. Maps from several sources are
// combined with DeepMerge.
package loader

import (
	"os"
)

// Loader is implemented by every configuration source.
type Loader interface {
	// Load returns the source's settings. An absent source yields nil, nil.
	Load() (map[string]any, error)
}

// ReadFileFS is the file access the file loader needs. Config paths come
// from the command line and may be absolute, so the OS implementation reads
// names as given instead of rooting them like os.DirFS.
type ReadFileFS interface {
	ReadFile(name string) ([]byte, error)
}

type osFS struct{}

func (osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// DefaultFS reads from the operating system.
func DefaultFS() ReadFileFS {
	return osFS{}
}
