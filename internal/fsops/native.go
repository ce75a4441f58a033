package fsops

import (
	"fmt"
	"io"
	"os"
	"sort"
	"syscall"
	"time"
)

// Native is the POSIX-backed FS implementation this agent runs with in
// practice. Amiga-specific metadata (protection bits, comments, volume
// lists) has no equivalent on a plain Linux tree, so those operations
// return ErrUnsupported rather than faking semantics the host filesystem
// does not have.
type Native struct{}

// NewNative returns the default OS-backed FS.
func NewNative() *Native { return &Native{} }

func (n *Native) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

type osFile struct{ f *os.File }

func (o *osFile) Read(p []byte) (int, error)               { return o.f.Read(p) }
func (o *osFile) WriteAt(p []byte, off int64) (int, error) { return o.f.WriteAt(p, off) }
func (o *osFile) Close() error                              { return o.f.Close() }
func (o *osFile) Size() (int64, error) {
	info, err := o.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (n *Native) OpenRead(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fsops: open %s for read: %w", path, err)
	}
	return &osFile{f: f}, nil
}

func (n *Native) OpenTruncateWrite(path string) (File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("fsops: open %s for write: %w", path, err)
	}
	return &osFile{f: f}, nil
}

func (n *Native) CreateDir(path string) error {
	if err := os.Mkdir(path, 0755); err != nil {
		return fmt.Errorf("fsops: mkdir %s: %w", path, err)
	}
	return nil
}

func (n *Native) Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("fsops: remove %s: %w", path, err)
	}
	return nil
}

func (n *Native) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("fsops: rename %s -> %s: %w", oldPath, newPath, err)
	}
	return nil
}

// Move tries a plain rename first; a rename across a filesystem boundary
// fails with EXDEV, in which case it falls back to copy + delete (spec §9).
func (n *Native) Move(oldPath, newPath string) error {
	err := os.Rename(oldPath, newPath)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("fsops: move %s -> %s: %w", oldPath, newPath, err)
	}
	if err := n.Copy(oldPath, newPath); err != nil {
		return fmt.Errorf("fsops: move (copy fallback) %s -> %s: %w", oldPath, newPath, err)
	}
	if err := n.Remove(oldPath); err != nil {
		return fmt.Errorf("fsops: move (delete source after copy) %s: %w", oldPath, err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	linkErr, ok := err.(*os.LinkError)
	if !ok {
		return false
	}
	errno, ok := linkErr.Err.(syscall.Errno)
	return ok && errno == syscall.EXDEV
}

func (n *Native) Copy(oldPath, newPath string) error {
	src, err := os.Open(oldPath)
	if err != nil {
		return fmt.Errorf("fsops: copy open src %s: %w", oldPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("fsops: copy stat src %s: %w", oldPath, err)
	}

	dst, err := os.OpenFile(newPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("fsops: copy open dst %s: %w", newPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("fsops: copy %s -> %s: %w", oldPath, newPath, err)
	}
	return nil
}

func (n *Native) SetProtection(path string, attrs uint32) error {
	return ErrUnsupported
}

func (n *Native) SetComment(path string, comment string) error {
	return ErrUnsupported
}

func (n *Native) SupportsFileDate() bool { return true }

func (n *Native) SetFileDate(path string, dateDays, dateMins uint32) error {
	t := amigaEpoch.Add(time.Duration(dateDays) * 24 * time.Hour).Add(time.Duration(dateMins) * time.Minute)
	if err := os.Chtimes(path, t, t); err != nil {
		return fmt.Errorf("fsops: set file date %s: %w", path, err)
	}
	return nil
}

// amigaEpoch is the Amiga DateStamp epoch (1978-01-01), preserved here so
// SetFileDate can translate a days/minutes DateStamp into a wall-clock time
// without needing the original 64-bit AmigaOS fields.
var amigaEpoch = time.Date(1978, 1, 1, 0, 0, 0, 0, time.UTC)

func (n *Native) ListDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("fsops: list dir %s: %w", path, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		days, mins := toAmigaDate(info.ModTime())
		out = append(out, DirEntry{
			Name:     e.Name(),
			Size:     uint32(info.Size()),
			IsDir:    e.IsDir(),
			DateDays: days,
			DateMins: mins,
		})
	}
	return out, nil
}

func toAmigaDate(t time.Time) (days, mins uint32) {
	d := t.Sub(amigaEpoch)
	if d < 0 {
		return 0, 0
	}
	totalMinutes := int64(d / time.Minute)
	return uint32(totalMinutes / (24 * 60)), uint32(totalMinutes % (24 * 60))
}

// ListVolumes has no meaning on a single POSIX tree rooted at "/": the
// agent has exactly one "volume" from the host's perspective. A backend
// targeting a system with real mount points would enumerate them here.
func (n *Native) ListVolumes() ([]VolumeEntry, error) {
	return nil, ErrUnsupported
}
