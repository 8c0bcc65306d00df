package storage

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/spf13/afero"
)

// File keeps one blob per file under a directory. Writes go to a temporary file that
// is renamed into place, so a reader never sees a partial blob.
type File struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

func NewFile(fs afero.Fs, dir string) (*File, error) {
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "[storage.NewFile] create %s", dir)
	}
	return &File{fs: fs, dir: dir}, nil
}

// Path is the file holding key. Keys that are not plain file names are hex encoded.
func (f *File) Path(key string) string {
	name := key
	if name == "" || strings.ContainsAny(name, `/\:.`) {
		name = hex.EncodeToString([]byte(key))
	}
	return filepath.Join(f.dir, name+".json")
}

func (f *File) Load(_ context.Context, key string) ([]byte, error) {
	blob, err := afero.ReadFile(f.fs, f.Path(key))
	if os.IsNotExist(err) {
		return nil, errors.ErrBlobNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[File.Load] read %s", key)
	}
	return blob, nil
}

func (f *File) Save(_ context.Context, key string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.Path(key)
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, blob, 0o600); err != nil {
		return errors.Wrapf(err, "[File.Save] write %s", key)
	}
	if err := f.fs.Rename(tmp, path); err != nil {
		_ = f.fs.Remove(tmp)
		return errors.Wrapf(err, "[File.Save] rename %s", key)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.fs.Remove(f.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "[File.Delete] remove %s", key)
	}
	return nil
}
