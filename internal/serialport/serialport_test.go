package serialport

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is an in-memory Port that delivers queued chunks to Read calls,
// simulating the partial-read-then-timeout behavior of a real serial line:
// an empty chunk models a 1-second inactivity timeout (zero bytes, no error).
type fakePort struct {
	chunks [][]byte
	writes [][]byte
	closed bool
}

func (f *fakePort) Read(p []byte) (int, error) {
	if len(f.chunks) == 0 {
		return 0, nil
	}
	chunk := f.chunks[0]
	f.chunks = f.chunks[1:]
	if len(chunk) == 0 {
		return 0, nil
	}
	n := copy(p, chunk)
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	f.writes = append(f.writes, cp)
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func TestReadFillsAcrossMultipleChunks(t *testing.T) {
	port := &fakePort{chunks: [][]byte{{1, 2}, {3}, {4, 5}}}
	tr := New(port)

	buf := make([]byte, 5)
	n, err := tr.Read(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, buf)
}

func TestReadStopsOnInactivityTimeout(t *testing.T) {
	port := &fakePort{chunks: [][]byte{{1, 2}, {}}}
	tr := New(port)

	buf := make([]byte, 5)
	n, err := tr.Read(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriteRejectsShortWrite(t *testing.T) {
	port := &shortWritePort{}
	tr := New(port)
	err := tr.Write([]byte("PkOk"))
	assert.Error(t, err)
}

type shortWritePort struct{}

func (s *shortWritePort) Read(p []byte) (int, error)  { return 0, io.EOF }
func (s *shortWritePort) Write(p []byte) (int, error) { return len(p) - 1, nil }
func (s *shortWritePort) Close() error                { return nil }

func TestDrainStopsAtFirstZeroRead(t *testing.T) {
	port := &fakePort{chunks: [][]byte{{9, 9, 9}, {8}, {}}}
	tr := New(port)
	tr.Drain(context.Background())
	assert.Empty(t, port.chunks)
}

func TestContextCancellationStopsRead(t *testing.T) {
	port := &fakePort{chunks: [][]byte{}}
	tr := New(port)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	buf := make([]byte, 4)
	_, err := tr.Read(ctx, buf)
	assert.ErrorIs(t, err, context.Canceled)
}
