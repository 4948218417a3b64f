package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/gabriel-vasile/mimetype"
)

type FileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size,omitempty"`
	Modified time.Time `json:"modified"`
	MimeType string    `json:"mime_type,omitempty"`
}

func (s *Sandbox) info(abs string, fi fs.FileInfo) FileInfo {
	rel, _ := s.Rel(abs)
	out := FileInfo{
		Name:     fi.Name(),
		Path:     rel,
		IsDir:    fi.IsDir(),
		Modified: fi.ModTime(),
	}
	if !fi.IsDir() {
		out.Size = fi.Size()
		out.MimeType = mimeFromExtension(fi.Name())
	}
	return out
}

// List returns directories first, then files, each sorted by name.
func (s *Sandbox) List(rel string) ([]FileInfo, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := expectDir(abs, rel, "list"); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, translate("list", rel, err)
	}

	items := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, s.info(filepath.Join(abs, entry.Name()), fi))
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDir != items[j].IsDir {
			return items[i].IsDir
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (s *Sandbox) Stat(rel string) (FileInfo, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return FileInfo{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return FileInfo{}, translate("stat", rel, err)
	}
	return s.info(abs, fi), nil
}

func (s *Sandbox) Exists(rel string) (bool, error) {
	_, err := s.Stat(rel)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Open returns a read handle on a regular file. The caller closes it.
func (s *Sandbox) Open(rel string) (*os.File, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := expectFile(abs, rel, "open"); err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, translate("open", rel, err)
	}
	return f, nil
}

func (s *Sandbox) ReadFile(rel string) ([]byte, error) {
	f, err := s.Open(rel)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, translate("read", rel, err)
	}
	return data, nil
}

// Write streams content to rel, creating parent directories.
func (s *Sandbox) Write(rel string, content io.Reader, overwrite bool) (FileInfo, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return FileInfo{}, err
	}
	if err := s.prepareDestination(abs, rel, "write", overwrite); err != nil {
		return FileInfo{}, err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(abs, flags, 0o644)
	if err != nil {
		return FileInfo{}, translate("write", rel, err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return FileInfo{}, translate("write", rel, err)
	}
	if err := f.Close(); err != nil {
		return FileInfo{}, translate("write", rel, err)
	}
	return s.Stat(rel)
}

func (s *Sandbox) Move(src, dst string, overwrite bool) (FileInfo, error) {
	srcAbs, err := s.Resolve(src)
	if err != nil {
		return FileInfo{}, err
	}
	dstAbs, err := s.Resolve(dst)
	if err != nil {
		return FileInfo{}, err
	}
	if _, err := os.Stat(srcAbs); err != nil {
		return FileInfo{}, translate("move", src, err)
	}
	if err := s.prepareDestination(dstAbs, dst, "move", overwrite); err != nil {
		return FileInfo{}, err
	}
	if err := os.Rename(srcAbs, dstAbs); err != nil {
		return FileInfo{}, translate("move", src, err)
	}
	s.logger.Debug("moved file", "from", src, "to", dst)
	return s.Stat(dst)
}

// Copy duplicates a regular file, preserving its mode and modification time.
func (s *Sandbox) Copy(src, dst string, overwrite bool) (FileInfo, error) {
	srcAbs, err := s.Resolve(src)
	if err != nil {
		return FileInfo{}, err
	}
	dstAbs, err := s.Resolve(dst)
	if err != nil {
		return FileInfo{}, err
	}
	if err := expectFile(srcAbs, src, "copy"); err != nil {
		return FileInfo{}, err
	}
	if err := s.prepareDestination(dstAbs, dst, "copy", overwrite); err != nil {
		return FileInfo{}, err
	}

	in, err := os.Open(srcAbs)
	if err != nil {
		return FileInfo{}, translate("copy", src, err)
	}
	defer in.Close()
	srcInfo, err := in.Stat()
	if err != nil {
		return FileInfo{}, translate("copy", src, err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	out, err := os.OpenFile(dstAbs, flags, srcInfo.Mode().Perm())
	if err != nil {
		return FileInfo{}, translate("copy", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return FileInfo{}, translate("copy", dst, err)
	}
	if err := out.Close(); err != nil {
		return FileInfo{}, translate("copy", dst, err)
	}
	_ = os.Chtimes(dstAbs, srcInfo.ModTime(), srcInfo.ModTime())
	return s.Stat(dst)
}

// Delete removes a file or a whole directory tree. The root itself cannot be deleted.
func (s *Sandbox) Delete(rel string) error {
	abs, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if abs == s.root {
		return pathErr("delete", rel, ErrPermission)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return translate("delete", rel, err)
	}
	if fi.IsDir() {
		err = os.RemoveAll(abs)
	} else {
		err = os.Remove(abs)
	}
	return translate("delete", rel, err)
}

// Hash streams the file through SHA-256 and returns the hex digest.
func (s *Sandbox) Hash(rel string) (string, error) {
	f, err := s.Open(rel)
	if err != nil {
		return "", err
	}
	defer f.Close()

	digest := sha256.New()
	buf := make([]byte, config.HashBlockLen)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", translate("hash", rel, err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

func (s *Sandbox) EnsureDir(rel string) (string, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", translate("mkdir", rel, err)
	}
	return abs, nil
}

// DetectMime prefers the extension and falls back to content sniffing.
func (s *Sandbox) DetectMime(rel string) (string, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	if byExt := mimeFromExtension(abs); byExt != "" {
		return byExt, nil
	}
	detected, err := mimetype.DetectFile(abs)
	if err != nil {
		return "", translate("detect", rel, err)
	}
	return stripParams(detected.String()), nil
}

// prepareDestination enforces the overwrite policy and creates the parent directory.
// The parent derives from an already resolved path so it cannot leave the root.
func (s *Sandbox) prepareDestination(abs, rel, op string, overwrite bool) error {
	fi, err := os.Stat(abs)
	switch {
	case err == nil && !overwrite:
		return pathErr(op, rel, ErrExists)
	case err == nil && fi.IsDir():
		return pathErr(op, rel, ErrNotFile)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return translate(op, rel, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return translate(op, rel, err)
	}
	return nil
}

func expectFile(abs, rel, op string) error {
	fi, err := os.Stat(abs)
	if err != nil {
		return translate(op, rel, err)
	}
	if !fi.Mode().IsRegular() {
		return pathErr(op, rel, ErrNotFile)
	}
	return nil
}

func expectDir(abs, rel, op string) error {
	fi, err := os.Stat(abs)
	if err != nil {
		return translate(op, rel, err)
	}
	if !fi.IsDir() {
		return pathErr(op, rel, ErrNotDir)
	}
	return nil
}

func mimeFromExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	return stripParams(mime.TypeByExtension(ext))
}

func stripParams(mediaType string) string {
	if mediaType == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return mediaType
	}
	return parsed
}
