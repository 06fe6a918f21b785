package resourcestore

import (
	"context"
	"errors"
	"os"
	"path"
	"strconv"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog/log"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
)

// readAttempts bounds how often ReadAndStat retries when the file changes
// while it is being read.
const readAttempts = 3

// FilesystemStore serves resources from a directory tree.
type FilesystemStore struct {
	fs billy.Filesystem
}

var (
	_ Store  = (*FilesystemStore)(nil)
	_ Writer = (*FilesystemStore)(nil)
)

// NewFilesystemStore roots a store at dir. A missing directory is not an
// error; every lookup then reports ErrResourceNotFound.
func NewFilesystemStore(dir string) *FilesystemStore {
	if _, err := os.Stat(dir); err != nil {
		log.Warn().Err(err).Str("root", dir).Msg("colour catalog root is not accessible")
	}
	return NewFilesystemStoreFrom(osfs.New(dir))
}

func NewFilesystemStoreFrom(fs billy.Filesystem) *FilesystemStore {
	return &FilesystemStore{fs: fs}
}

func (s *FilesystemStore) ResolvePath(key palette.Key) string {
	return KeyPath(key)
}

func (s *FilesystemStore) Stat(ctx context.Context, p string) (Version, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fi, err := s.fs.Stat(p)
	if err != nil {
		return "", s.translate("stat", p, err)
	}
	if fi.IsDir() {
		return "", ErrResourceNotFound.Msg("resource is a directory: " + p)
	}
	return fileVersion(fi), nil
}

func (s *FilesystemStore) ReadAndStat(ctx context.Context, p string) (*Resource, error) {
	var (
		content []byte
		version Version
	)
	for range readAttempts {
		before, err := s.Stat(ctx, p)
		if err != nil {
			return nil, err
		}
		content, err = util.ReadFile(s.fs, p)
		if err != nil {
			return nil, s.translate("read", p, err)
		}
		version, err = s.Stat(ctx, p)
		if err != nil {
			return nil, err
		}
		if before == version {
			break
		}
		log.Ctx(ctx).Debug().Str("path", p).Msg("resource changed during read, retrying")
	}
	return &Resource{Path: p, Content: content, Version: version}, nil
}

// Put writes content through a temporary file so readers never see a partial document.
func (s *FilesystemStore) Put(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return s.translate("mkdir", p, err)
	}
	tmp := p + ".tmp"
	if err := util.WriteFile(s.fs, tmp, content, 0o644); err != nil {
		return s.translate("write", p, err)
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return s.translate("rename", p, err)
	}
	return nil
}

func (s *FilesystemStore) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil {
		return s.translate("remove", p, err)
	}
	return nil
}

func (s *FilesystemStore) translate(op, p string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return ErrResourceNotFound.Msg("resource not found: " + p)
	case errors.Is(err, billy.ErrCrossedBoundary):
		return ErrInvalidPath.Msg("path escapes catalog root: " + p)
	}
	return ErrResourceStoreError.MsgErr(op+" "+p, err)
}

func fileVersion(fi os.FileInfo) Version {
	return Version(strconv.FormatInt(fi.ModTime().UnixNano(), 10) + "-" + strconv.FormatInt(fi.Size(), 10))
}
