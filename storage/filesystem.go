package storage

import (
	"net/url"
	"os"
	"path"

	"github.com/pkg/errors"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// Filesystem persists session items to a folder, one file per key. Keys are
// percent-escaped to form file names, so arbitrary key strings are safe.
type Filesystem struct {
	folder string
}

// NewFilesystem creates a store rooted at folder, creating the folder if
// needed.
func NewFilesystem(folder string) (*Filesystem, error) {
	if err := os.MkdirAll(folder, dirMode); err != nil {
		return nil, errors.Wrap(err, "NewFilesystem os.MkdirAll")
	}
	return &Filesystem{folder: folder}, nil
}

// GetItem returns the value stored under key, or ok=false when no file exists
// for it.
func (fs *Filesystem) GetItem(key string) (string, bool, error) {
	data, err := os.ReadFile(fs.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "Filesystem.GetItem os.ReadFile")
	}
	return string(data), true, nil
}

// SetItem writes value to the file named after key, replacing any previous
// contents.
func (fs *Filesystem) SetItem(key, value string) error {
	if err := os.WriteFile(fs.path(key), []byte(value), fileMode); err != nil {
		return errors.Wrap(err, "Filesystem.SetItem os.WriteFile")
	}
	return nil
}

// RemoveItem deletes the file for key. Removing an absent key is not an
// error.
func (fs *Filesystem) RemoveItem(key string) error {
	if err := os.Remove(fs.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "Filesystem.RemoveItem os.Remove")
	}
	return nil
}

func (fs *Filesystem) path(key string) string {
	return path.Join(fs.folder, url.PathEscape(key))
}
