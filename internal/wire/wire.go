// Package wire defines the on-wire layout of the serial file-transfer
// protocol: the opcodes, the 12-byte header, the ACK/NACK handshake
// tokens, and little-endian helpers for the integers carried in message
// payloads.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/gooofy/ftsagent/internal/crc32ieee"
)

// Opcode is the one-byte message identifier carried in Header.Msg.
type Opcode byte

const (
	OpNextPart   Opcode = 0x00 // proceed / ready for next
	OpInit       Opcode = 0x02
	OpMPartH     Opcode = 0x03 // multi-part header: announces stream total size
	OpEOF        Opcode = 0x04
	OpBlock      Opcode = 0x05
	OpIOErr      Opcode = 0x08
	OpAckClose   Opcode = 0x0A
	OpDir        Opcode = 0x64
	OpFileSend   Opcode = 0x65
	OpFileRecv   Opcode = 0x66
	OpFileDelete Opcode = 0x67
	OpFileRename Opcode = 0x68
	OpFileMove   Opcode = 0x69
	OpFileCopy   Opcode = 0x6A
	OpFileAttr   Opcode = 0x6B
	OpFileClose  Opcode = 0x6D
)

func (o Opcode) String() string {
	switch o {
	case OpNextPart:
		return "NEXT_PART"
	case OpInit:
		return "INIT"
	case OpMPartH:
		return "MPARTH"
	case OpEOF:
		return "EOF"
	case OpBlock:
		return "BLOCK"
	case OpIOErr:
		return "IOERR"
	case OpAckClose:
		return "ACK_CLOSE"
	case OpDir:
		return "DIR"
	case OpFileSend:
		return "FILE_SEND"
	case OpFileRecv:
		return "FILE_RECV"
	case OpFileDelete:
		return "FILE_DELETE"
	case OpFileRename:
		return "FILE_RENAME"
	case OpFileMove:
		return "FILE_MOVE"
	case OpFileCopy:
		return "FILE_COPY"
	case OpFileAttr:
		return "FILE_ATTR"
	case OpFileClose:
		return "FILE_CLOSE"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", byte(o))
	}
}

const (
	// HeaderSize is the fixed on-wire header length in bytes.
	HeaderSize = 12
	// MaxPayload is the largest payload this agent will accept.
	MaxPayload = 1024
	// CRCSize is the size of the trailing CRC that follows a non-empty payload.
	CRCSize = 4
)

// AckToken and NackToken are the 4-byte ASCII handshake replies exchanged
// after every message, in each direction.
var (
	AckToken  = [4]byte{'P', 'k', 'O', 'k'}
	NackToken = [4]byte{'P', 'k', 'R', 's'}
)

// Header is the 12-byte frame header: sync, opcode, signed payload length,
// monotonic sequence number, and a CRC-32 over the first 8 bytes.
type Header struct {
	Sync byte
	Msg  Opcode
	Len  int16
	Seq  uint32
	CRC  uint32
}

// Encode serializes h into a freshly computed 12-byte buffer. The CRC field
// is recomputed from the other fields, so a caller never has to keep it in
// sync by hand.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	buf[0] = h.Sync
	buf[1] = byte(h.Msg)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h.Len))
	binary.LittleEndian.PutUint32(buf[4:8], h.Seq)
	binary.LittleEndian.PutUint32(buf[8:12], crc32ieee.Checksum(buf[0:8]))
	return buf
}

// DecodeHeader parses a 12-byte on-wire header and reports whether its CRC
// (computed over the first 8 bytes) is valid.
func DecodeHeader(buf []byte) (h Header, crcOK bool) {
	if len(buf) < HeaderSize {
		return Header{}, false
	}
	h.Sync = buf[0]
	h.Msg = Opcode(buf[1])
	h.Len = int16(binary.LittleEndian.Uint16(buf[2:4]))
	h.Seq = binary.LittleEndian.Uint32(buf[4:8])
	h.CRC = binary.LittleEndian.Uint32(buf[8:12])
	crcOK = h.CRC == crc32ieee.Checksum(buf[0:8])
	return h, crcOK
}

// PutUint32 and Uint32 are little-endian helpers for message payloads (pos,
// sizes, attrs, ...), kept here so handlers never reach for encoding/binary
// directly and risk picking the wrong byte order.
func PutUint32(buf []byte, v uint32) { binary.LittleEndian.PutUint32(buf, v) }
func Uint32(buf []byte) uint32       { return binary.LittleEndian.Uint32(buf) }
