package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveModeIdleByDefault(t *testing.T) {
	s := New()
	assert.Equal(t, ModeIdle, s.ActiveMode())
}

func TestActiveModeReceiving(t *testing.T) {
	s := New()
	s.Receiving = 100
	assert.Equal(t, ModeReceiving, s.ActiveMode())
}

func TestActiveModeSending(t *testing.T) {
	s := New()
	s.Sending = 600
	assert.Equal(t, ModeSending, s.ActiveMode())
}

func TestActiveModeStreamingDir(t *testing.T) {
	s := New()
	s.DirBufSending = true
	assert.Equal(t, ModeStreamingDir, s.ActiveMode())
}

func TestActiveModePanicsOnViolatedInvariant(t *testing.T) {
	s := New()
	s.Receiving = 1
	s.Sending = 1
	assert.Panics(t, func() { s.ActiveMode() })
}

func TestResetTransferClearsAllFlags(t *testing.T) {
	s := New()
	s.Receiving = 10
	s.Received = 5
	s.DirBufSending = true
	s.DirBufTotal = 99
	s.DirBufOffset = 3

	s.ResetTransfer()

	assert.Zero(t, s.Receiving)
	assert.Zero(t, s.Received)
	assert.Zero(t, s.Sending)
	assert.Zero(t, s.Sent)
	assert.False(t, s.DirBufSending)
	assert.Zero(t, s.DirBufTotal)
	assert.Zero(t, s.DirBufOffset)
}

func TestCloseOpenFileNoOpWhenNoneOpen(t *testing.T) {
	s := New()
	assert.NoError(t, s.CloseOpenFile())
}
