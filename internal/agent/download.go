package agent

import (
	"context"
	"fmt"

	"github.com/gooofy/ftsagent/internal/wire"
)

// handleFileRecv implements spec §4.5.1: the host announces a file or
// directory it is about to push down.
func (a *Agent) handleFileRecv(ctx context.Context, payload []byte) error {
	meta, path := parseRecvMeta(payload)
	a.sess.RecvMeta = meta
	a.sess.CurPath = path

	if a.fs.Exists(path) {
		a.log.WithField("path", path).Debug("agent: FILE_RECV target already exists")
		return a.replyIOErr(ctx)
	}

	if meta.FileType == fileTypeDirectory {
		if err := a.fs.CreateDir(path); err != nil {
			a.log.WithError(err).WithField("path", path).Warn("agent: create directory failed")
			return a.replyIOErr(ctx)
		}
		return a.replyOK(ctx)
	}

	// Regular file: the host will follow up with MPARTH, then BLOCK*.
	return a.replyOK(ctx)
}

// handleMPartH implements spec §4.5.2, the host→device download
// initiation: it always carries the stream's total size, and on the
// download path opens cur_path for writing.
func (a *Agent) handleMPartH(ctx context.Context, payload []byte) error {
	if len(payload) < 4 {
		return fmt.Errorf("agent: MPARTH payload too short: %d bytes", len(payload))
	}
	totalSize := wire.Uint32(payload[0:4])
	if len(payload) >= 8 {
		a.log.WithField("flags", wire.Uint32(payload[4:8])).Debug("agent: MPARTH flags (unused)")
	}

	a.sess.Receiving = totalSize
	a.sess.Received = 0
	a.sess.Sending = 0

	if err := a.sess.CloseOpenFile(); err != nil {
		a.log.WithError(err).Warn("agent: closing previously open file before MPARTH")
	}

	f, err := a.fs.OpenTruncateWrite(a.sess.CurPath)
	if err != nil {
		a.log.WithError(err).WithField("path", a.sess.CurPath).Warn("agent: open for download failed")
		a.sess.Receiving = 0
		return a.replyIOErr(ctx)
	}
	a.sess.OpenFile = f
	return a.replyOK(ctx)
}

// handleBlock implements spec §4.5.3. A BLOCK outside an active download is
// a protocol violation, not a recoverable filesystem error (spec §4.5.8),
// so it is reported as a fatal dispatcher error rather than IOERR.
func (a *Agent) handleBlock(ctx context.Context, payload []byte) error {
	if a.sess.Receiving == 0 {
		return fmt.Errorf("agent: BLOCK received outside an active download")
	}
	if len(payload) < 4 {
		return fmt.Errorf("agent: BLOCK payload too short: %d bytes", len(payload))
	}

	pos := wire.Uint32(payload[0:4])
	data := payload[4:]

	if _, err := a.sess.OpenFile.WriteAt(data, int64(pos)); err != nil {
		return fmt.Errorf("agent: write block at %d: %w", pos, err)
	}
	a.sess.Received += uint32(len(data))
	return a.replyOK(ctx)
}

// handleEOF implements spec §4.5 table: no response, just clears the
// transfer-mode flags marking the download complete.
func (a *Agent) handleEOF(ctx context.Context) error {
	a.sess.ResetTransfer()
	return nil
}

// handleFileClose implements spec §4.5.5: commit the deferred metadata
// cached at FILE_RECV time, then acknowledge.
func (a *Agent) handleFileClose(ctx context.Context) error {
	if a.sess.OpenFile != nil {
		if err := a.sess.CloseOpenFile(); err != nil {
			a.log.WithError(err).WithField("path", a.sess.CurPath).Warn("agent: close file failed")
		}

		if err := ignoreUnsupported(a.fs.SetProtection(a.sess.CurPath, a.sess.RecvMeta.Attrs)); err != nil {
			a.log.WithError(err).WithField("path", a.sess.CurPath).Warn("agent: set protection failed")
		}
		if a.fs.SupportsFileDate() {
			if err := a.fs.SetFileDate(a.sess.CurPath, a.sess.RecvMeta.Date, a.sess.RecvMeta.Time); err != nil {
				a.log.WithError(err).WithField("path", a.sess.CurPath).Warn("agent: set file date failed")
			}
		}
	}
	return a.framer.WriteMessage(ctx, wire.OpAckClose, nil)
}
