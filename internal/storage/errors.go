package storage

import (
	"errors"
	"io/fs"
)

var (
	ErrPathTraversal = errors.New("path escapes storage root")
	ErrNotFound      = errors.New("path does not exist")
	ErrExists        = errors.New("path already exists")
	ErrNotFile       = errors.New("path is not a file")
	ErrNotDir        = errors.New("path is not a directory")
	ErrPermission    = errors.New("permission denied")
)

// PathError records the operation and the caller supplied relative path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathErr(op, rel string, err error) error {
	return &PathError{Op: op, Path: rel, Err: err}
}

// translate maps os level failures onto the package sentinels, keeping the cause.
func translate(op, rel string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return pathErr(op, rel, errors.Join(ErrNotFound, err))
	case errors.Is(err, fs.ErrExist):
		return pathErr(op, rel, errors.Join(ErrExists, err))
	case errors.Is(err, fs.ErrPermission):
		return pathErr(op, rel, errors.Join(ErrPermission, err))
	}
	return pathErr(op, rel, err)
}
