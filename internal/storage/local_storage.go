package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const tmpDirName = ".tmp"

// LocalStorage keeps user trees as plain files under a base directory,
// one top-level directory per user. Writes land in a temp area first and
// are renamed into place, so a crashed upload never leaves a partial file
// visible; SweepTemp garbage-collects what the renames left behind.
type LocalStorage struct {
	basePath string
	tmpPath  string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	tmpPath := filepath.Join(basePath, tmpDirName)
	if err := os.MkdirAll(tmpPath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath, tmpPath: tmpPath}, nil
}

// fullPath maps a slash-separated relative path into the base directory,
// refusing anything that would escape it.
func (ls *LocalStorage) fullPath(rel string) (string, error) {
	if strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("absolute path %q not allowed", rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", rel)
	}
	return filepath.Join(ls.basePath, clean), nil
}

func (ls *LocalStorage) Read(rel string) ([]byte, error) {
	p, err := ls.fullPath(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (ls *LocalStorage) Write(rel string, data []byte) error {
	p, err := ls.fullPath(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return err
	}

	tmp := filepath.Join(ls.tmpPath, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (ls *LocalStorage) Delete(rel string) error {
	p, err := ls.fullPath(rel)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (ls *LocalStorage) Exists(rel string) (bool, error) {
	p, err := ls.fullPath(rel)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (ls *LocalStorage) Copy(srcRel, dstRel string) error {
	src, err := ls.fullPath(srcRel)
	if err != nil {
		return err
	}
	dst, err := ls.fullPath(dstRel)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func (ls *LocalStorage) Rename(srcRel, dstRel string) error {
	src, err := ls.fullPath(srcRel)
	if err != nil {
		return err
	}
	dst, err := ls.fullPath(dstRel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

func (ls *LocalStorage) EnsureDir(rel string) error {
	p, err := ls.fullPath(rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, os.ModePerm)
}

func (ls *LocalStorage) RemoveAll(rel string) error {
	p, err := ls.fullPath(rel)
	if err != nil {
		return err
	}
	if p == ls.basePath {
		return errors.New("refusing to remove storage root")
	}
	return os.RemoveAll(p)
}

// SweepTemp removes temp-area files older than maxAge and returns how
// many were deleted. Interrupted uploads are the only thing that lands
// there, so an aggressive cutoff is safe.
func (ls *LocalStorage) SweepTemp(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(ls.tmpPath)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(ls.tmpPath, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
