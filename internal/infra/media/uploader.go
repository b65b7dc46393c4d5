package media

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"ortus/internal/domain/model"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Uploader は1リクエスト分の画像をワーカープールで並列に保存する
type Uploader struct {
	store   Store
	pool    *ants.Pool
	newName func(ext string) string
}

func NewUploader(store Store, workers int) (*Uploader, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "create upload pool")
	}
	return &Uploader{
		store: store,
		pool:  pool,
		newName: func(ext string) string {
			return uuid.NewString() + ext
		},
	}, nil
}

// Upload は入力と同じ順番でURLを返す。1枚でも失敗したら保存済みの分を消してエラー。
func (u *Uploader) Upload(ctx context.Context, files []model.ImageFile) ([]string, error) {
	urls := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		i, f := i, f
		wg.Add(1)
		err := u.pool.Submit(func() {
			defer wg.Done()
			urls[i], errs[i] = u.save(ctx, f)
		})
		if err != nil {
			wg.Done()
			errs[i] = errors.Wrap(err, "submit upload")
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			u.Remove(context.WithoutCancel(ctx), urls)
			return nil, err
		}
	}
	return urls, nil
}

// Remove はアップロード済みの画像を消す。失敗はログだけ残す。
func (u *Uploader) Remove(ctx context.Context, urls []string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := u.store.Delete(ctx, path.Base(url)); err != nil {
			zap.L().Warn("remove uploaded image failed", zap.String("url", url), zap.Error(err))
		}
	}
}

func (u *Uploader) save(ctx context.Context, f model.ImageFile) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", errors.Wrapf(err, "open %s", f.Filename)
	}
	defer rc.Close()

	name := u.newName(strings.ToLower(filepath.Ext(f.Filename)))
	return u.store.Save(ctx, name, rc)
}

func (u *Uploader) Release() {
	u.pool.Release()
}
