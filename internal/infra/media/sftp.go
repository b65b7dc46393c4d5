package media

import (
	"context"
	"io"
	"os"
	"path"

	"ortus/internal/config"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// SFTPStore はリモートの公開ディレクトリにアップロードする
type SFTPStore struct {
	conn    *ssh.Client
	client  *sftp.Client
	dir     string
	baseURL string
}

func NewSFTPStore(cfg config.MediaConfig) (*SFTPStore, error) {
	hostKey, err := hostKeyCallback(cfg.SFTPHostKey)
	if err != nil {
		return nil, err
	}

	conn, err := ssh.Dial("tcp", cfg.SFTPAddr, &ssh.ClientConfig{
		User:            cfg.SFTPUser,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.SFTPPassword)},
		HostKeyCallback: hostKey,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "ssh dial %s", cfg.SFTPAddr)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "sftp client")
	}
	if err := client.MkdirAll(cfg.SFTPDir); err != nil {
		_ = client.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "sftp mkdir %s", cfg.SFTPDir)
	}

	return &SFTPStore{conn: conn, client: client, dir: cfg.SFTPDir, baseURL: cfg.BaseURL}, nil
}

func hostKeyCallback(authorizedKey string) (ssh.HostKeyCallback, error) {
	if authorizedKey == "" {
		zap.L().Warn("SFTP_HOST_KEY is empty, host key is not verified")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	pk, _, _, _, err := ssh.ParseAuthorizedKey([]byte(authorizedKey))
	if err != nil {
		return nil, errors.Wrap(err, "parse SFTP_HOST_KEY")
	}
	return ssh.FixedHostKey(pk), nil
}

func (s *SFTPStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := s.client.Create(path.Join(s.dir, path.Base(name)))
	if err != nil {
		return "", errors.Wrap(err, "sftp create")
	}
	defer f.Close()

	if _, err := f.ReadFrom(r); err != nil {
		return "", errors.Wrap(err, "sftp write")
	}
	return joinURL(s.baseURL, name), nil
}

func (s *SFTPStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.client.Remove(path.Join(s.dir, path.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "sftp remove")
	}
	return nil
}

func (s *SFTPStore) Close() error {
	_ = s.client.Close()
	return s.conn.Close()
}
