package transfer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFunc copies src to dst. Implementations must create dst (and, for
// directories, its whole tree) and may assume dst does not exist yet.
type CopyFunc func(src, dst string) error

// CopyPath copies a regular file or a directory tree. Symlinks are followed
// so the copy contains what the digest of src covers. Permission bits and
// modification times are preserved.
func CopyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	switch {
	case info.Mode().IsRegular():
		return CopyFile(src, dst, info)
	case info.IsDir():
		return copyTree(src, dst, info)
	default:
		return fmt.Errorf("copy %s: unsupported file type %s", src, info.Mode().Type())
	}
}

// CopyFile streams src to dst, applying the mode and modification time from
// info (the stat of src). A nil info stats src.
func CopyFile(src, dst string, info os.FileInfo) error {
	if info == nil {
		var err error
		if info, err = os.Stat(src); err != nil {
			return err
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return preserveAttrs(dst, info)
}

func copyTree(src, dst string, info os.FileInfo) error {
	if err := os.Mkdir(dst, info.Mode().Perm()|0o700); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		childInfo, err := os.Stat(from)
		if err != nil {
			return err
		}
		switch {
		case childInfo.IsDir():
			err = copyTree(from, to, childInfo)
		case childInfo.Mode().IsRegular():
			err = CopyFile(from, to, childInfo)
		default:
			err = fmt.Errorf("copy %s: unsupported file type %s", from, childInfo.Mode().Type())
		}
		if err != nil {
			return err
		}
	}
	// Directory attributes last; writing children bumps the mtime.
	return preserveAttrs(dst, info)
}

func preserveAttrs(path string, info os.FileInfo) error {
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(path, info.ModTime(), info.ModTime())
}
