package agent

import (
	"bytes"

	"github.com/gooofy/ftsagent/internal/session"
	"github.com/gooofy/ftsagent/internal/wire"
)

// cstring splits a NUL-terminated string off the front of b, returning the
// string and whatever follows the terminator. A payload with no NUL is
// treated as the whole remainder (defensive against a malformed host, since
// a hung parse would stall the session).
func cstring(b []byte) (string, []byte) {
	idx := bytes.IndexByte(b, 0)
	if idx < 0 {
		return string(b), nil
	}
	return string(b[:idx]), b[idx+1:]
}

// recvMetaPrefixSize is the fixed portion of a FILE_RECV payload, before the
// NUL-terminated path (spec §3).
const recvMetaPrefixSize = 29

// parseRecvMeta decodes the 29-byte receive-metadata prefix and the path
// that follows it.
func parseRecvMeta(payload []byte) (session.RecvMeta, string) {
	var m session.RecvMeta
	if len(payload) < recvMetaPrefixSize {
		return m, ""
	}
	m.FileSize = wire.Uint32(payload[4:8])
	m.Attrs = wire.Uint32(payload[12:16])
	m.Date = wire.Uint32(payload[16:20])
	m.Time = wire.Uint32(payload[20:24])
	m.CTime = wire.Uint32(payload[24:28])
	m.FileType = payload[28]
	path, _ := cstring(payload[recvMetaPrefixSize:])
	return m, path
}

// fileTypeDirectory is the recv-meta file_type value marking a directory
// (spec §3; shared with dirent's type2, spec §9).
const fileTypeDirectory = 2
