package agent

import (
	"context"
	"errors"
	"io"

	"github.com/gooofy/ftsagent/internal/fsops"
)

// fakeTransport is a minimal in-memory framing.Transport, local to this
// package's tests (mirrors internal/framing's own test fake).
type fakeTransport struct {
	in     []byte
	out    [][]byte
	drains int
}

func (f *fakeTransport) Read(ctx context.Context, buf []byte) (int, error) {
	if len(f.in) == 0 {
		return 0, errors.New("fakeTransport: input exhausted")
	}
	n := copy(buf, f.in)
	f.in = f.in[n:]
	return n, nil
}

func (f *fakeTransport) Write(buf []byte) error {
	f.out = append(f.out, append([]byte(nil), buf...))
	return nil
}

func (f *fakeTransport) Drain(ctx context.Context) { f.drains++ }

// feedAcks queues n ACK tokens so n consecutive WriteMessage calls succeed
// without retransmission.
func (f *fakeTransport) feedAcks(n int) {
	for i := 0; i < n; i++ {
		f.in = append(f.in, 'P', 'k', 'O', 'k')
	}
}

// fakeFile is an in-memory fsops.File over a growable byte buffer.
type fakeFile struct {
	buf     []byte
	readPos int
	closed  bool
}

func newFakeFile(initial []byte) *fakeFile {
	return &fakeFile{buf: append([]byte(nil), initial...)}
}

func (f *fakeFile) Read(p []byte) (int, error) {
	if f.readPos >= len(f.buf) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[f.readPos:])
	f.readPos += n
	return n, nil
}

func (f *fakeFile) WriteAt(p []byte, off int64) (int, error) {
	end := int(off) + len(p)
	if end > len(f.buf) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[off:end], p)
	return len(p), nil
}

func (f *fakeFile) Size() (int64, error) { return int64(len(f.buf)), nil }
func (f *fakeFile) Close() error         { f.closed = true; return nil }

// fakeFS is an in-memory fsops.FS double driven entirely by a map of
// path -> file contents, enough to exercise every handler without touching
// a real filesystem.
type fakeFS struct {
	files        map[string][]byte
	dirs         map[string]bool
	dirEntries   map[string][]fsops.DirEntry
	volumes      []fsops.VolumeEntry
	supportsDate bool
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		files:        map[string][]byte{},
		dirs:         map[string]bool{},
		dirEntries:   map[string][]fsops.DirEntry{},
		supportsDate: true,
	}
}

func (f *fakeFS) Exists(path string) bool {
	if _, ok := f.files[path]; ok {
		return true
	}
	return f.dirs[path]
}

func (f *fakeFS) OpenRead(path string) (fsops.File, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errors.New("fakeFS: no such file")
	}
	ff := newFakeFile(data)
	return ff, nil
}

func (f *fakeFS) OpenTruncateWrite(path string) (fsops.File, error) {
	ff := newFakeFile(nil)
	f.files[path] = nil
	return &boundFakeFile{fakeFile: ff, fs: f, path: path}, nil
}

// boundFakeFile writes back into fakeFS.files on every WriteAt so the
// fsops.FS's view of the file stays current without a separate flush step.
type boundFakeFile struct {
	*fakeFile
	fs   *fakeFS
	path string
}

func (b *boundFakeFile) WriteAt(p []byte, off int64) (int, error) {
	n, err := b.fakeFile.WriteAt(p, off)
	b.fs.files[b.path] = b.fakeFile.buf
	return n, err
}

func (f *fakeFS) CreateDir(path string) error {
	f.dirs[path] = true
	return nil
}

func (f *fakeFS) Remove(path string) error {
	delete(f.files, path)
	delete(f.dirs, path)
	return nil
}

func (f *fakeFS) Rename(oldPath, newPath string) error {
	return f.Move(oldPath, newPath)
}

func (f *fakeFS) Move(oldPath, newPath string) error {
	if data, ok := f.files[oldPath]; ok {
		f.files[newPath] = data
		delete(f.files, oldPath)
		return nil
	}
	if f.dirs[oldPath] {
		f.dirs[newPath] = true
		delete(f.dirs, oldPath)
		return nil
	}
	return errors.New("fakeFS: no such path")
}

func (f *fakeFS) Copy(oldPath, newPath string) error {
	data, ok := f.files[oldPath]
	if !ok {
		return errors.New("fakeFS: no such file")
	}
	f.files[newPath] = append([]byte(nil), data...)
	return nil
}

func (f *fakeFS) SetProtection(path string, attrs uint32) error { return fsops.ErrUnsupported }
func (f *fakeFS) SetComment(path string, comment string) error  { return fsops.ErrUnsupported }
func (f *fakeFS) SupportsFileDate() bool                        { return f.supportsDate }
func (f *fakeFS) SetFileDate(path string, dateDays, dateMins uint32) error { return nil }

func (f *fakeFS) ListDir(path string) ([]fsops.DirEntry, error) {
	entries, ok := f.dirEntries[path]
	if !ok {
		return nil, errors.New("fakeFS: no such directory")
	}
	return entries, nil
}

func (f *fakeFS) ListVolumes() ([]fsops.VolumeEntry, error) {
	if f.volumes == nil {
		return nil, fsops.ErrUnsupported
	}
	return f.volumes, nil
}
