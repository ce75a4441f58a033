package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderRoundTrip(t *testing.T) {
	cases := []Header{
		{Sync: 0, Msg: OpInit, Len: 0, Seq: 0},
		{Sync: 0, Msg: OpBlock, Len: 1024, Seq: 42},
		{Sync: 0, Msg: OpFileRecv, Len: 517, Seq: 0xFFFFFFF0},
	}
	for _, want := range cases {
		buf := want.Encode()
		got, ok := DecodeHeader(buf[:])
		assert.True(t, ok)
		assert.Equal(t, want.Sync, got.Sync)
		assert.Equal(t, want.Msg, got.Msg)
		assert.Equal(t, want.Len, got.Len)
		assert.Equal(t, want.Seq, got.Seq)
	}
}

func TestDecodeHeaderBadCRC(t *testing.T) {
	h := Header{Msg: OpInit, Len: 0, Seq: 0}
	buf := h.Encode()
	buf[11] ^= 0xFF
	_, ok := DecodeHeader(buf[:])
	assert.False(t, ok)
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "INIT", OpInit.String())
	assert.Contains(t, Opcode(0x99).String(), "UNKNOWN")
}
