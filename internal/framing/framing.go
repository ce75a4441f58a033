// Package framing implements the send/receive pair that adds and strips
// the wire header, CRCs, and ACK/NACK handshake (spec §4.3). It owns the
// outbound sequence counter and validates the inbound one — resolving the
// original agent's `FIXME: check sequence!` per spec §9's recommendation.
package framing

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gooofy/ftsagent/internal/crc32ieee"
	"github.com/gooofy/ftsagent/internal/wire"
)

// Transport is the byte-stream primitive framing is built on; satisfied by
// *serialport.Transport, and by a fake in tests.
type Transport interface {
	Read(ctx context.Context, buf []byte) (int, error)
	Write(buf []byte) error
	Drain(ctx context.Context)
}

// ErrBufferOverflow is returned by ReadMessage when a peer announces a
// payload larger than the receive buffer. Per spec §4.3.1 step 3 this is
// not recoverable: the caller must shut the session down after seeing it.
var ErrBufferOverflow = errors.New("framing: payload exceeds receive buffer")

// Framer reads and writes whole messages over a Transport.
type Framer struct {
	t      Transport
	outSeq uint32
	inSeq  uint32
	log    logrus.FieldLogger
}

// New wraps t. A nil logger falls back to logrus's standard logger.
func New(t Transport, log logrus.FieldLogger) *Framer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Framer{t: t, log: log}
}

// ReadMessage reads one message, handling header/payload corruption and
// sequence mismatches by NACKing and resynchronizing internally; it only
// returns once a well-formed message has been accepted and ACKed, or a
// fatal condition (buffer overflow, transport error, context cancellation)
// has occurred.
func (f *Framer) ReadMessage(ctx context.Context, maxPayload int) (wire.Header, []byte, error) {
	for {
		var headerBuf [wire.HeaderSize]byte
		n, err := f.t.Read(ctx, headerBuf[:])
		if err != nil {
			return wire.Header{}, nil, err
		}
		if n == 0 {
			// Pure inactivity timeout: keep listening.
			continue
		}

		header, crcOK := wire.DecodeHeader(headerBuf[:n])
		if n != wire.HeaderSize || !crcOK {
			f.log.Debug("framing: corrupted header, resynchronizing")
			f.t.Drain(ctx)
			if err := f.t.Write(wire.NackToken[:]); err != nil {
				return wire.Header{}, nil, err
			}
			continue
		}

		if header.Seq != f.inSeq {
			f.log.WithFields(logrus.Fields{"expected": f.inSeq, "got": header.Seq}).
				Debug("framing: sequence mismatch, resynchronizing")
			f.t.Drain(ctx)
			if err := f.t.Write(wire.NackToken[:]); err != nil {
				return wire.Header{}, nil, err
			}
			continue
		}

		var payload []byte
		if header.Len > 0 {
			if int(header.Len) > maxPayload {
				f.log.WithField("len", header.Len).Error("framing: payload exceeds receive buffer")
				_ = f.t.Write(wire.NackToken[:])
				return wire.Header{}, nil, ErrBufferOverflow
			}

			payload = make([]byte, header.Len)
			np, err := f.t.Read(ctx, payload)
			if err != nil {
				return wire.Header{}, nil, err
			}
			var crcBuf [wire.CRCSize]byte
			nc, err := f.t.Read(ctx, crcBuf[:])
			if err != nil {
				return wire.Header{}, nil, err
			}

			gotCRC := wire.Uint32(crcBuf[:])
			wantCRC := crc32ieee.Checksum(payload)
			if np != int(header.Len) || nc != wire.CRCSize || gotCRC != wantCRC {
				f.log.Debug("framing: corrupted payload, resynchronizing")
				if err := f.t.Write(wire.NackToken[:]); err != nil {
					return wire.Header{}, nil, err
				}
				continue
			}
		}

		f.inSeq++
		if err := f.t.Write(wire.AckToken[:]); err != nil {
			return wire.Header{}, nil, err
		}
		return header, payload, nil
	}
}

// WriteMessage sends one message and waits for the peer's handshake,
// retransmitting (with the same sequence number) on NACK. An absent or
// garbled handshake is logged and treated as best-effort completion
// rather than retried forever (spec §4.3.2 step 6).
func (f *Framer) WriteMessage(ctx context.Context, opcode wire.Opcode, payload []byte) error {
	h := wire.Header{Msg: opcode, Len: int16(len(payload)), Seq: f.outSeq}
	f.outSeq++
	headerBuf := h.Encode()

	var payloadCRC [wire.CRCSize]byte
	if len(payload) > 0 {
		wire.PutUint32(payloadCRC[:], crc32ieee.Checksum(payload))
	}

	for {
		if err := f.t.Write(headerBuf[:]); err != nil {
			return fmt.Errorf("framing: write header: %w", err)
		}
		if len(payload) > 0 {
			if err := f.t.Write(payload); err != nil {
				return fmt.Errorf("framing: write payload: %w", err)
			}
			if err := f.t.Write(payloadCRC[:]); err != nil {
				return fmt.Errorf("framing: write payload crc: %w", err)
			}
		}

		var ackBuf [4]byte
		n, err := f.t.Read(ctx, ackBuf[:])
		if err != nil {
			return err
		}
		if n == 4 && bytes.Equal(ackBuf[:], wire.AckToken[:]) {
			return nil
		}
		if n == 4 && bytes.Equal(ackBuf[:], wire.NackToken[:]) {
			f.t.Drain(ctx)
			continue
		}

		f.log.WithField("token", ackBuf[:n]).Error("framing: unexpected handshake reply")
		return nil
	}
}
