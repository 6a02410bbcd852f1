// Package filesystem provides file system adapters.
package filesystem

import (
	"os"

	"github.com/provisionkit/provision/internal/ports"
)

// OSFileSystem observes the real file system.
type OSFileSystem struct{}

// NewOSFileSystem creates a new OSFileSystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// Exists returns true if the path exists.
func (f *OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(ports.ExpandPath(path))
	return err == nil
}

// IsDir returns true if the path exists and is a directory.
func (f *OSFileSystem) IsDir(path string) bool {
	info, err := os.Stat(ports.ExpandPath(path))
	return err == nil && info.IsDir()
}

// GetFileInfo returns metadata for the path.
func (f *OSFileSystem) GetFileInfo(path string) (ports.FileInfo, error) {
	info, err := os.Stat(ports.ExpandPath(path))
	if err != nil {
		return ports.FileInfo{}, err
	}
	return ports.FileInfo{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// Ensure OSFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*OSFileSystem)(nil)
