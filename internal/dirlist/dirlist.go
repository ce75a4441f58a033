// Package dirlist serializes a platform directory listing, or a volume
// list, into the wire dirent format (spec §3, §4.5.7) so it can be
// streamed back to the host across a run of NEXT_PART polls.
package dirlist

import (
	"github.com/gooofy/ftsagent/internal/wire"
)

// entryPrefixSize is the fixed 29-byte prefix of one dirent, before its two
// NUL-terminated strings.
const entryPrefixSize = 29

// CountPrefixSize is the 4-byte entry count placed at dirbuf[0:4].
const CountPrefixSize = 4

// Entry is one dirent to encode: either a directory child (IsDir set for
// subdirectories, encoded as type2=2) or a volume (IsDir false, so type2=0;
// Comment empty).
type Entry struct {
	Name     string
	Comment  string
	Size     uint32 // bytes for a file, or total bytes for a volume
	Used     uint32 // equal to Size for a file; used bytes for a volume
	Attrs    uint16
	DateDays uint32
	DateMins uint32
	IsDir    bool
}

// Encode appends entries into buf starting at offset 0, writing the 4-byte
// count prefix first. It stops (without erroring) once an entry would
// overflow buf, returning how many entries were actually encoded and the
// total bytes written including the count prefix — mirroring the original
// agent's "stop and log, still send what accumulated" overflow policy
// (spec §4.5.7).
func Encode(buf []byte, entries []Entry) (encoded int, total int, overflowed bool) {
	if len(buf) < CountPrefixSize {
		return 0, 0, true
	}
	offset := CountPrefixSize
	for _, e := range entries {
		size := entrySize(e)
		if offset+size > len(buf) {
			overflowed = true
			break
		}
		writeEntry(buf[offset:], e)
		offset += size
		encoded++
	}
	wire.PutUint32(buf[0:4], uint32(encoded))
	return encoded, offset, overflowed
}

func entrySize(e Entry) int {
	return entryPrefixSize + len(e.Name) + 1 + len(e.Comment) + 1
}

// writeEntry encodes one dirent at buf[0:entrySize(e)]. The ds_Minute
// quirk from the original agent — the same field landing in both Time and
// CTime — is preserved verbatim for wire compatibility (spec §9).
func writeEntry(buf []byte, e Entry) {
	size := entrySize(e)
	wire.PutUint32(buf[0:4], uint32(size))
	wire.PutUint32(buf[4:8], e.Size)
	wire.PutUint32(buf[8:12], e.Used)
	buf[12] = 0 // type (always 0 in the current wire revision, spec §9)
	buf[13] = 0
	buf[14] = byte(e.Attrs)
	buf[15] = byte(e.Attrs >> 8)
	wire.PutUint32(buf[16:20], e.DateDays)
	wire.PutUint32(buf[20:24], e.DateMins)
	wire.PutUint32(buf[24:28], e.DateMins)
	if e.IsDir {
		buf[28] = 2
	} else {
		buf[28] = 0
	}

	pos := entryPrefixSize
	pos += copy(buf[pos:], e.Name)
	buf[pos] = 0
	pos++
	pos += copy(buf[pos:], e.Comment)
	buf[pos] = 0
}
