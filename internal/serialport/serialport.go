// Package serialport provides the blocking, timeout-bounded byte-stream
// primitive the framing layer is built on: a length-bounded read that
// tolerates a silent or noisy line, a length-exact write, and a drain
// helper used to resynchronize after a framing error.
package serialport

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// InactivityTimeout is the single timeout this protocol uses: a read
// attempt that makes no progress for this long is reported as a (possibly
// zero-length) partial read rather than an error.
const InactivityTimeout = 1 * time.Second

// DrainScratchSize is the buffer size used by Drain, per the original
// agent's re-synchronization helper.
const DrainScratchSize = 512

// Port is the minimal byte-stream surface Transport needs from the
// underlying driver. *serial.Port satisfies it directly; tests substitute
// an in-memory fake.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Open opens device at the given baud rate with the fixed inactivity
// timeout this protocol relies on for its re-synchronization behavior.
func Open(device string, baud int) (*Transport, error) {
	cfg := &serial.Config{
		Name:        device,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: InactivityTimeout,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s at %d baud: %w", device, baud, err)
	}
	return New(port), nil
}

// Transport wraps a Port with the agent's read/write/drain semantics.
type Transport struct {
	port Port
	log  logrus.FieldLogger
}

// New wraps an already-opened Port. Used directly by tests with a fake Port.
func New(port Port) *Transport {
	return &Transport{port: port, log: logrus.StandardLogger()}
}

// SetLogger overrides the default standard logger.
func (t *Transport) SetLogger(log logrus.FieldLogger) { t.log = log }

// Read attempts to fill buf completely, looping over partial reads from the
// underlying port until either buf is full or a read makes zero progress
// (the 1-second inactivity window configured on the port elapsed with
// nothing received). It returns the number of bytes actually delivered,
// which may be less than len(buf) on timeout; that is not an error.
//
// ctx is polled between underlying reads so a CTRL-C/shutdown signal is
// observed promptly without needing to interrupt the in-flight syscall.
func (t *Transport) Read(ctx context.Context, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		n, err := t.port.Read(buf[total:])
		if err != nil {
			return total, fmt.Errorf("serialport: read: %w", err)
		}
		if n == 0 {
			// Inactivity timeout with no progress: report what we have.
			return total, nil
		}
		total += n
	}
	return total, nil
}

// Write blocks until all of buf has been handed to the device. A short
// write is a fatal transport error (spec: "asserts exactly n bytes
// written; fatal on short write").
func (t *Transport) Write(buf []byte) error {
	n, err := t.port.Write(buf)
	if err != nil {
		return fmt.Errorf("serialport: write: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("serialport: short write: wrote %d of %d bytes", n, len(buf))
	}
	return nil
}

// Drain repeatedly reads into a scratch buffer until a read returns no
// bytes, used to flush whatever a corrupted peer is still sending before
// resynchronizing on the next header.
func (t *Transport) Drain(ctx context.Context) {
	scratch := make([]byte, DrainScratchSize)
	for {
		n, err := t.Read(ctx, scratch)
		if err != nil || n == 0 {
			return
		}
	}
}

// Close releases the underlying port. Closing unblocks any Read currently
// inside the underlying driver's blocking syscall on most platforms, which
// is how orderly shutdown aborts a pending read.
func (t *Transport) Close() error {
	return t.port.Close()
}
