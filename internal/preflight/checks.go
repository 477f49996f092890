package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// ErrInsufficientSpace is returned by RequireFreeSpace when the target volume
// cannot hold the requested bytes.
var ErrInsufficientSpace = errors.New("insufficient free space")

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckCreatable passes when path is an accessible directory or when its
// nearest existing ancestor is writable, so it can be created on demand.
func CheckCreatable(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := nearestExisting(path)
	if ancestor == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// FreeSpace reports the bytes available to unprivileged users on the volume
// holding path (or its nearest existing ancestor).
func FreeSpace(path string) (uint64, error) {
	target := nearestExisting(path)
	if target == "" {
		return 0, fmt.Errorf("free space for %s: %w", path, fs.ErrNotExist)
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(target, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", target, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckFreeSpace reports whether the volume holding path has at least need
// bytes available.
func CheckFreeSpace(name, path string, need uint64) Result {
	avail, err := FreeSpace(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s (%s free, %s needed)", path, humanize.IBytes(avail), humanize.IBytes(need))
	return Result{Name: name, Passed: avail >= need, Detail: detail}
}

// RequireFreeSpace is CheckFreeSpace as an error.
func RequireFreeSpace(path string, need uint64) error {
	avail, err := FreeSpace(path)
	if err != nil {
		return err
	}
	if avail < need {
		return fmt.Errorf("%s: %w: %s free, %s needed", path, ErrInsufficientSpace, humanize.IBytes(avail), humanize.IBytes(need))
	}
	return nil
}

func nearestExisting(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}
