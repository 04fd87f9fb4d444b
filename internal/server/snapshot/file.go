package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/filex"
)

// FileStore keeps each snapshot in <dir>/<name>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	b, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	return b, nil
}

func (s *FileStore) Save(_ context.Context, name string, data []byte) error {
	if err := filex.WriteFileAtomic(s.path(name), data, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
