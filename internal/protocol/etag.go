package protocol

import (
	"strconv"
	"time"
)

// EtagFromModTime derives the etag for a file. It is a pure function of the
// modification time: the Unix seconds truncated to 32 bits, rendered in
// decimal on the wire. Two stats of an unchanged file always agree, which is
// all the conditional GET path needs.
func EtagFromModTime(mtime time.Time) uint32 {
	return uint32(mtime.Unix())
}

// FormatEtag renders an etag the way it appears in the ETag header.
func FormatEtag(etag uint32) string {
	return strconv.FormatUint(uint64(etag), 10)
}

// ParseEtag parses a client-supplied etag value. The server only ever
// emitted decimal etags, so anything else does not match and does not parse.
func ParseEtag(b []byte) (uint32, bool) {
	return parseDecimalU32(b)
}
