// Package session holds the mutable per-connection state the message
// handlers read and update: the open file handle, the in-flight transfer
// counters, and the directory-listing scratch buffer. It replaces the
// original agent's module-level globals with a single struct passed by
// pointer to every handler, so "at most one transfer mode is active" is a
// property you can assert on one value instead of several free variables.
package session

import (
	"fmt"

	"github.com/gooofy/ftsagent/internal/fsops"
)

// DirBufSize is the fixed capacity of the directory-listing scratch buffer.
const DirBufSize = 16384

// RecvMeta is the cached receive-metadata record from the FILE_RECV that
// preceded the current download, applied to the file at FILE_CLOSE time.
type RecvMeta struct {
	FileSize uint32
	Attrs    uint32
	Date     uint32
	Time     uint32
	CTime    uint32
	FileType uint8
}

// State is the single owner of everything that must survive across
// requests within one agent session. It is never accessed from more than
// one goroutine (the dispatcher loop is the only mutator), so it carries
// no locks.
type State struct {
	OpenFile   fsops.File
	CurPath    string
	CurNewPath string
	RecvMeta   RecvMeta

	Receiving uint32 // bytes host announced for the in-flight download; 0 if none
	Received  uint32 // bytes written so far

	Sending uint32 // size of file being uploaded; 0 if none
	Sent    uint32 // upload position reported by the last read

	DirBuf        []byte
	DirBufTotal   int
	DirBufOffset  int
	DirBufSending bool
}

// New returns a freshly initialized, idle session.
func New() *State {
	return &State{DirBuf: make([]byte, DirBufSize)}
}

// Mode names the single active transfer mode, if any.
type Mode int

const (
	ModeIdle Mode = iota
	ModeReceiving
	ModeSending
	ModeStreamingDir
)

func (m Mode) String() string {
	switch m {
	case ModeReceiving:
		return "receiving"
	case ModeSending:
		return "sending"
	case ModeStreamingDir:
		return "streaming-dir"
	default:
		return "idle"
	}
}

// ActiveMode reports which of the three mutually exclusive transfer modes
// is active, or ModeIdle if none is. It also catches a violated invariant:
// more than one mode flagged active at once is a programming error, not a
// recoverable protocol condition, so it panics rather than guessing.
func (s *State) ActiveMode() Mode {
	active := 0
	mode := ModeIdle
	if s.Receiving > 0 {
		active++
		mode = ModeReceiving
	}
	if s.Sending > 0 {
		active++
		mode = ModeSending
	}
	if s.DirBufSending {
		active++
		mode = ModeStreamingDir
	}
	if active > 1 {
		panic(fmt.Sprintf("session: invariant violated: %d transfer modes active simultaneously", active))
	}
	return mode
}

// ResetTransfer clears all three transfer-mode flags, as done on EOF.
func (s *State) ResetTransfer() {
	s.Receiving = 0
	s.Received = 0
	s.Sending = 0
	s.Sent = 0
	s.DirBufSending = false
	s.DirBufTotal = 0
	s.DirBufOffset = 0
}

// CloseOpenFile closes and clears OpenFile if one is held. It is always
// safe to call, including when no file is open.
func (s *State) CloseOpenFile() error {
	if s.OpenFile == nil {
		return nil
	}
	err := s.OpenFile.Close()
	s.OpenFile = nil
	return err
}
