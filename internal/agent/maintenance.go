package agent

import (
	"context"

	"github.com/gooofy/ftsagent/internal/wire"
)

// handleFileDelete implements spec §4.5 table: delete, recursively, via
// the filesystem collaborator.
func (a *Agent) handleFileDelete(ctx context.Context, payload []byte) error {
	path, _ := cstring(payload)
	if err := a.fs.Remove(path); err != nil {
		a.log.WithError(err).WithField("path", path).Debug("agent: delete failed")
		return a.replyIOErr(ctx)
	}
	return a.replyOK(ctx)
}

// handleFileRename implements spec §4.5 table: rename within one parent
// directory.
func (a *Agent) handleFileRename(ctx context.Context, payload []byte) error {
	oldPath, rest := cstring(payload)
	newPath, _ := cstring(rest)
	if err := a.fs.Rename(oldPath, newPath); err != nil {
		a.log.WithError(err).WithField("old", oldPath).WithField("new", newPath).Debug("agent: rename failed")
		return a.replyIOErr(ctx)
	}
	return a.replyOK(ctx)
}

// handleFileMove implements spec §4.5 table / §9: rename, falling back to
// copy+delete across volumes.
func (a *Agent) handleFileMove(ctx context.Context, payload []byte) error {
	oldPath, rest := cstring(payload)
	newPath, _ := cstring(rest)
	if err := a.fs.Move(oldPath, newPath); err != nil {
		a.log.WithError(err).WithField("old", oldPath).WithField("new", newPath).Debug("agent: move failed")
		return a.replyIOErr(ctx)
	}
	return a.replyOK(ctx)
}

// handleFileCopy implements spec §4.5 table: duplicate a file.
func (a *Agent) handleFileCopy(ctx context.Context, payload []byte) error {
	oldPath, rest := cstring(payload)
	newPath, _ := cstring(rest)
	if err := a.fs.Copy(oldPath, newPath); err != nil {
		a.log.WithError(err).WithField("old", oldPath).WithField("new", newPath).Debug("agent: copy failed")
		return a.replyIOErr(ctx)
	}
	return a.replyOK(ctx)
}

// handleFileAttr implements spec §4.5 table: set protection bits and a
// comment. Both calls are made unconditionally, the same as the original
// agent's msg_file_attr (`success &= SetProtection(...); success &=
// SetComment(...)`) — a failing SetProtection must not suppress a
// SetComment that would otherwise have succeeded. Either being unsupported
// by the backing filesystem (spec §6.3) is not a failure of the request;
// an actual error is.
func (a *Agent) handleFileAttr(ctx context.Context, payload []byte) error {
	if len(payload) < 4 {
		return a.replyIOErr(ctx)
	}
	attrs := wire.Uint32(payload[0:4])
	path, rest := cstring(payload[4:])
	comment, _ := cstring(rest)

	protErr := ignoreUnsupported(a.fs.SetProtection(path, attrs))
	if protErr != nil {
		a.log.WithError(protErr).WithField("path", path).Debug("agent: set protection failed")
	}
	commentErr := ignoreUnsupported(a.fs.SetComment(path, comment))
	if commentErr != nil {
		a.log.WithError(commentErr).WithField("path", path).Debug("agent: set comment failed")
	}

	if protErr != nil || commentErr != nil {
		return a.replyIOErr(ctx)
	}
	return a.replyOK(ctx)
}
