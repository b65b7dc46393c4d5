package media

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
)

// Store はファイルを保存して公開URLを返す
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// Delete は存在しないファイルならnilを返す
	Delete(ctx context.Context, name string) error
}

// LocalStore はローカルディレクトリに保存する（/uploads で配信）
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create media dir %s", dir)
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

// Dir は静的配信するディレクトリ
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return "", errors.Wrap(err, "create media file")
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "write media file")
	}
	return joinURL(s.baseURL, name), nil
}

func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove media file")
	}
	return nil
}

func joinURL(base, name string) string {
	if base == "" {
		return "/" + name
	}
	return base + "/" + path.Base(name)
}
