// Package receipt discovers receipt files on disk for upload.
package receipt

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions accepted as receipts. Content is sniffed again before upload.
var Extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

// File is a receipt candidate found on disk.
type File struct {
	Path string
	Name string
	Size int64
}

// ScanDir walks dir and returns receipt files ordered by path. Hidden files
// and directories are skipped, as are files larger than maxSize when
// maxSize is positive.
func ScanDir(dir string, maxSize int64) ([]File, []File, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, &os.PathError{Op: "scan", Path: dir, Err: os.ErrInvalid}
	}

	var files, tooLarge []File
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsReceipt(name) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		f := File{Path: path, Name: name, Size: fi.Size()}
		if maxSize > 0 && f.Size > maxSize {
			tooLarge = append(tooLarge, f)
			return nil
		}
		files = append(files, f)
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, tooLarge, err
}

// IsReceipt reports whether name has a receipt extension.
func IsReceipt(name string) bool {
	return Extensions[strings.ToLower(filepath.Ext(name))]
}

// TotalSize sums the sizes of files.
func TotalSize(files []File) int64 {
	var n int64
	for _, f := range files {
		n += f.Size
	}
	return n
}
