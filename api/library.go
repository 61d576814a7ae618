package api

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/aouyang1/inkframe/util"
	"github.com/google/uuid"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrImageExists   = errors.New("image already exists")
	ErrInvalidName   = errors.New("invalid image name")
)

// ImageFile is one image in the library directory.
type ImageFile struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Library manages the image files in a single directory.
type Library struct {
	dir string
}

func NewLibrary(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create image directory, %s, %w", dir, err)
	}
	return &Library{dir: dir}, nil
}

func (l *Library) Dir() string {
	return l.dir
}

// Path resolves name inside the library, rejecting names that would escape it.
func (l *Library) Path(name string) (string, error) {
	if !util.SafeFileName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(l.dir, name), nil
}

func (l *Library) Exists(name string) (bool, error) {
	path, err := l.Path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// List returns the supported images in the directory, newest first.
func (l *Library) List() ([]ImageFile, error) {
	dirs, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", l.dir, err)
	}

	files := []ImageFile{}
	for _, dir := range dirs {
		name := dir.Name()
		if !dir.Type().IsRegular() || !util.IsSupportedImage(name) {
			continue
		}

		info, err := dir.Info()
		if err != nil {
			continue
		}
		files = append(files, ImageFile{
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	slices.SortStableFunc(files, func(a, b ImageFile) int {
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return files, nil
}

// Save streams r into name, replacing any existing file once the copy is
// complete. Any safe name is accepted; List only reports supported images.
func (l *Library) Save(name string, r io.Reader) (int64, error) {
	dst, err := l.Path(name)
	if err != nil {
		return 0, err
	}

	tmp := filepath.Join(l.dir, "."+uuid.NewString()+".part")
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("unable to create upload file: %w", err)
	}
	defer os.Remove(tmp)

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("unable to write upload, %s, %w", name, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		return 0, fmt.Errorf("unable to move upload into place, %s, %w", name, err)
	}
	return n, nil
}

func (l *Library) Rename(oldName, newName string) error {
	oldPath, err := l.Path(oldName)
	if err != nil {
		return err
	}
	newPath, err := l.Path(newName)
	if err != nil {
		return err
	}
	if !util.IsSupportedImage(newName) {
		return fmt.Errorf("%w: unsupported extension %q", ErrInvalidName, filepath.Ext(newName))
	}

	exists, err := l.Exists(oldName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrImageNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("%w: %s", ErrImageExists, newName)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("unable to rename %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// Delete removes the regular file name and reports whether it existed.
// Anything else under that name is left alone and reported as absent.
func (l *Library) Delete(name string) (bool, error) {
	path, err := l.Path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}

	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to delete %s: %w", name, err)
	}
	return true, nil
}
