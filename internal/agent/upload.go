package agent

import (
	"context"

	"github.com/gooofy/ftsagent/internal/wire"
)

// sendChunkSize is the per-BLOCK read size used while uploading a file to
// the host (spec §4.5.4, §8 scenario 4: 512-byte chunks).
const sendChunkSize = 512

// dirChunkSize is the per-BLOCK slice size used while streaming a
// directory listing: the largest payload that still fits a 4-byte offset
// prefix inside wire.MaxPayload.
const dirChunkSize = wire.MaxPayload - 4

func (a *Agent) handleFileSend(ctx context.Context, payload []byte) error {
	path, _ := cstring(payload)

	if err := a.sess.CloseOpenFile(); err != nil {
		a.log.WithError(err).Warn("agent: closing previously open file before FILE_SEND")
	}

	f, err := a.fs.OpenRead(path)
	if err != nil {
		a.log.WithError(err).WithField("path", path).Debug("agent: open for upload failed")
		return a.replyIOErr(ctx)
	}
	size, err := f.Size()
	if err != nil {
		_ = f.Close()
		a.log.WithError(err).WithField("path", path).Warn("agent: stat for upload failed")
		return a.replyIOErr(ctx)
	}

	a.sess.OpenFile = f
	a.sess.CurPath = path
	a.sess.Sending = uint32(size)
	a.sess.Sent = 0

	var buf [4]byte
	wire.PutUint32(buf[:], uint32(size))
	return a.framer.WriteMessage(ctx, wire.OpMPartH, buf[:])
}

// handleNextPart implements spec §4.5.4, the single poll handler shared by
// file upload and directory-listing streaming.
func (a *Agent) handleNextPart(ctx context.Context) error {
	switch {
	case a.sess.Sending > 0:
		return a.sendFileChunk(ctx)
	case a.sess.DirBufSending:
		return a.sendDirChunk(ctx)
	default:
		a.log.Debug("agent: spurious NEXT_PART poll, ignoring")
		return nil
	}
}

func (a *Agent) sendFileChunk(ctx context.Context) error {
	chunk := make([]byte, sendChunkSize)
	n, err := a.sess.OpenFile.Read(chunk)
	if n == 0 || err != nil {
		a.sess.Sending = 0
		return a.framer.WriteMessage(ctx, wire.OpEOF, nil)
	}

	out := make([]byte, 4+n)
	wire.PutUint32(out[0:4], a.sess.Sent)
	copy(out[4:], chunk[:n])
	a.sess.Sent += uint32(n)
	return a.framer.WriteMessage(ctx, wire.OpBlock, out)
}

func (a *Agent) sendDirChunk(ctx context.Context) error {
	remaining := a.sess.DirBufTotal - a.sess.DirBufOffset
	if remaining <= 0 {
		a.sess.DirBufSending = false
		a.sess.DirBufTotal = 0
		a.sess.DirBufOffset = 0
		return a.framer.WriteMessage(ctx, wire.OpEOF, nil)
	}

	n := remaining
	if n > dirChunkSize {
		n = dirChunkSize
	}

	out := make([]byte, 4+n)
	wire.PutUint32(out[0:4], uint32(a.sess.DirBufOffset))
	copy(out[4:], a.sess.DirBuf[a.sess.DirBufOffset:a.sess.DirBufOffset+n])
	a.sess.DirBufOffset += n
	return a.framer.WriteMessage(ctx, wire.OpBlock, out)
}
