package agent

import (
	"context"

	"github.com/gooofy/ftsagent/internal/dirlist"
	"github.com/gooofy/ftsagent/internal/fsops"
	"github.com/gooofy/ftsagent/internal/wire"
)

// volumeProtectionBit marks a write-protected volume in a dirent's attrs
// field (spec §4.5.7).
const volumeProtectionBit = 0x04

// handleDir implements spec §4.5.7: an empty path lists mounted volumes, a
// non-empty path lists one directory's children. Either way the result is
// encoded into the session's dirbuf and streamed back via NEXT_PART polls
// started by the MPARTH reply here.
//
// Lock/examine failure is a DIR-specific convention: it replies EOF, not
// IOERR (spec §4.5.7 tie-break policy).
func (a *Agent) handleDir(ctx context.Context, payload []byte) error {
	path, _ := cstring(payload)

	var entries []dirlist.Entry
	if path == "" {
		vols, err := a.fs.ListVolumes()
		if err != nil {
			a.log.WithError(err).Debug("agent: list volumes unavailable")
			return a.framer.WriteMessage(ctx, wire.OpEOF, nil)
		}
		entries = volumeEntries(vols)
	} else {
		children, err := a.fs.ListDir(path)
		if err != nil {
			a.log.WithError(err).WithField("path", path).Debug("agent: list dir failed")
			return a.framer.WriteMessage(ctx, wire.OpEOF, nil)
		}
		entries = childEntries(children)
	}

	encoded, total, overflowed := dirlist.Encode(a.sess.DirBuf, entries)
	if overflowed {
		a.log.WithFields(map[string]interface{}{"path": path, "encoded": encoded, "of": len(entries)}).
			Warn("agent: directory listing truncated, dirbuf full")
	}

	a.sess.DirBufTotal = total
	a.sess.DirBufOffset = 0
	a.sess.DirBufSending = true
	a.sess.Sending = 0

	var buf [4]byte
	wire.PutUint32(buf[:], uint32(total))
	return a.framer.WriteMessage(ctx, wire.OpMPartH, buf[:])
}

func childEntries(children []fsops.DirEntry) []dirlist.Entry {
	out := make([]dirlist.Entry, 0, len(children))
	for _, c := range children {
		out = append(out, dirlist.Entry{
			Name:     c.Name,
			Comment:  c.Comment,
			Size:     c.Size,
			Used:     c.Size,
			Attrs:    uint16(c.Protection),
			DateDays: c.DateDays,
			DateMins: c.DateMins,
			IsDir:    c.IsDir,
		})
	}
	return out
}

func volumeEntries(vols []fsops.VolumeEntry) []dirlist.Entry {
	out := make([]dirlist.Entry, 0, len(vols))
	for _, v := range vols {
		var attrs uint16
		if v.WriteProtected {
			attrs = volumeProtectionBit
		}
		out = append(out, dirlist.Entry{
			Name:     v.Name + ":",
			Size:     v.BytesTotal,
			Used:     v.BytesUsed,
			Attrs:    attrs,
			DateDays: v.DateDays,
			DateMins: v.DateMins,
			IsDir:    false,
		})
	}
	return out
}
