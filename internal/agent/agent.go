// Package agent implements the request dispatcher (spec §4.4) and the
// per-opcode message handlers (spec §4.5) that together form the protocol
// state machine: read one message, branch on opcode, mutate session state
// and/or the filesystem, send exactly one reply, repeat.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gooofy/ftsagent/internal/fsops"
	"github.com/gooofy/ftsagent/internal/framing"
	"github.com/gooofy/ftsagent/internal/session"
	"github.com/gooofy/ftsagent/internal/wire"
)

// Agent owns the one dispatcher loop of a session: a framer to talk to the
// host, a filesystem collaborator, and the mutable transfer state.
type Agent struct {
	framer *framing.Framer
	fs     fsops.FS
	sess   *session.State
	log    logrus.FieldLogger
}

// New builds an Agent ready to Run.
func New(framer *framing.Framer, fs fsops.FS, sess *session.State, log logrus.FieldLogger) *Agent {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Agent{framer: framer, fs: fs, sess: sess, log: log}
}

// Run is the dispatcher loop: read, branch, handle, repeat, until ctx is
// canceled or a protocol violation makes continuing unsafe (spec §4.4,
// §4.5.8: unknown opcode, BLOCK outside a receive, and buffer overflow are
// all fatal).
func (a *Agent) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, payload, err := a.framer.ReadMessage(ctx, wire.MaxPayload)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.log.WithError(err).Error("agent: fatal transport error, shutting down")
			return err
		}

		if err := a.dispatch(ctx, header, payload); err != nil {
			a.log.WithError(err).WithField("opcode", header.Msg).Error("agent: fatal protocol error, shutting down")
			return err
		}
	}
}

func (a *Agent) dispatch(ctx context.Context, header wire.Header, payload []byte) error {
	switch header.Msg {
	case wire.OpInit:
		return a.handleInit(ctx)
	case wire.OpFileRecv:
		return a.handleFileRecv(ctx, payload)
	case wire.OpMPartH:
		return a.handleMPartH(ctx, payload)
	case wire.OpBlock:
		return a.handleBlock(ctx, payload)
	case wire.OpEOF:
		return a.handleEOF(ctx)
	case wire.OpNextPart:
		return a.handleNextPart(ctx)
	case wire.OpFileClose:
		return a.handleFileClose(ctx)
	case wire.OpFileSend:
		return a.handleFileSend(ctx, payload)
	case wire.OpDir:
		return a.handleDir(ctx, payload)
	case wire.OpFileDelete:
		return a.handleFileDelete(ctx, payload)
	case wire.OpFileRename:
		return a.handleFileRename(ctx, payload)
	case wire.OpFileMove:
		return a.handleFileMove(ctx, payload)
	case wire.OpFileCopy:
		return a.handleFileCopy(ctx, payload)
	case wire.OpFileAttr:
		return a.handleFileAttr(ctx, payload)
	default:
		return fmt.Errorf("agent: unknown opcode 0x%02x", byte(header.Msg))
	}
}

// replyOK writes a NEXT_PART with no payload, the generic "proceed" reply.
func (a *Agent) replyOK(ctx context.Context) error {
	return a.framer.WriteMessage(ctx, wire.OpNextPart, nil)
}

// replyIOErr writes an IOERR with no payload, the generic filesystem
// failure reply (spec §4.5.8: filesystem errors never bring the session
// down, they just fail the one request).
func (a *Agent) replyIOErr(ctx context.Context) error {
	return a.framer.WriteMessage(ctx, wire.OpIOErr, nil)
}

// ignoreUnsupported treats fsops.ErrUnsupported as a silent no-op: the
// operation has no meaning on this backend, which is not the same as it
// having failed (spec §6.3 plug-in boundary discussion).
func ignoreUnsupported(err error) error {
	if errors.Is(err, fsops.ErrUnsupported) {
		return nil
	}
	return err
}
