package collab

import (
	"fmt"
	"os"
	"path/filepath"

	"ragchat/internal/domain"
)

// StatFiles turns user-typed paths into file handles. Every path must name
// a readable regular file; the first one that does not aborts the whole
// selection.
func StatFiles(paths []string) ([]domain.FileHandle, error) {
	files := make([]domain.FileHandle, 0, len(paths))
	for _, p := range paths {
		fh, err := statFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, fh)
	}
	return files, nil
}

func statFile(p string) (domain.FileHandle, error) {
	unreadable := domain.NewDomainError("StatFiles", domain.ErrFileUnreadable, fmt.Sprintf("cannot read %s", p))

	abs, err := filepath.Abs(p)
	if err != nil {
		return domain.FileHandle{}, unreadable
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return domain.FileHandle{}, unreadable
	}
	f, err := os.Open(abs)
	if err != nil {
		return domain.FileHandle{}, unreadable
	}
	f.Close()

	return domain.FileHandle{Name: filepath.Base(abs), SizeBytes: info.Size(), Path: abs}, nil
}
