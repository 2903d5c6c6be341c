package protocol

import (
	"bytes"
	"math"

	"github.com/srdjan/ns-http-server/pkg/arena"
)

// Parse tokenizes one socket read into a Request backed by the given arena.
//
// The input is copied into the arena once; every field of the returned
// Request is a view into that copy. Malformed input returns a *ParseError
// carrying the classification. An arena over budget returns
// arena.ErrExhausted unwrapped so callers can map it to the overload
// response instead of a 400.
//
// Known headers are parsed eagerly: If-None-Match must be a decimal
// unsigned 32-bit value, Content-Length a decimal unsigned 64-bit value,
// and Cache-Control a directive list with a numeric max-age. A request
// carrying any of these in a shape the server cannot use is rejected
// outright rather than served with the header ignored.
func Parse(raw []byte, a *arena.Arena) (*Request, error) {
	buf, err := a.Copy(raw)
	if err != nil {
		return nil, err
	}

	req := &Request{}

	line, rest := nextLine(buf)
	fields := bytes.Fields(line)
	switch len(fields) {
	case 0:
		return nil, parseErr(KindMissingMethod, nil)
	case 1:
		return nil, parseErr(KindMissingResource, line)
	case 2:
		return nil, parseErr(KindMissingVersion, line)
	}
	req.Method = fields[0]
	req.Resource = fields[1]
	req.Version = fields[2]
	if !bytes.HasPrefix(req.Version, []byte("HTTP/")) {
		return nil, parseErr(KindBadVersion, req.Version)
	}

	for {
		line, rest = nextLine(rest)
		if len(line) == 0 {
			break
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return nil, parseErr(KindBadHeader, line)
		}
		name := trimSpace(line[:colon])
		value := trimSpace(line[colon+1:])
		if len(name) == 0 {
			return nil, parseErr(KindBadHeader, line)
		}
		req.Headers = append(req.Headers, Header{Name: name, Value: value})

		switch {
		case equalFold(name, "if-none-match"):
			v, ok := parseDecimalU32(value)
			if !ok {
				return nil, parseErr(KindBadEtag, value)
			}
			req.Etag, req.HasEtag = v, true
		case equalFold(name, "content-length"):
			v, ok := parseDecimalU64(value)
			if !ok {
				return nil, parseErr(KindBadContentLength, value)
			}
			req.ContentLength, req.HasContentLength = v, true
		case equalFold(name, "cache-control"):
			cc, ok := parseCacheControl(value)
			if !ok {
				return nil, parseErr(KindBadCacheControl, value)
			}
			req.Cache = cc
		}
	}

	req.Body = rest
	return req, nil
}

// nextLine splits at the first LF, trimming an optional preceding CR.
// When no LF exists the whole input is the line and the remainder is nil,
// which ends both the request line and header scans cleanly on truncated
// reads.
func nextLine(b []byte) (line, rest []byte) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil
	}
	line = b[:i]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, b[i+1:]
}

// parseCacheControl accepts a comma-separated directive list. Directives the
// server acts on are typed; unknown simple tokens pass through. A max-age
// that is not a decimal number fails the whole header.
func parseCacheControl(v []byte) (CacheControl, bool) {
	var cc CacheControl
	for _, part := range bytes.Split(v, []byte(",")) {
		part = trimSpace(part)
		if len(part) == 0 {
			continue
		}
		switch {
		case equalFold(part, "no-cache"):
			cc.NoCache = true
		case equalFold(part, "no-store"):
			cc.NoStore = true
		case hasPrefixFold(part, "max-age="):
			age, ok := parseDecimalU32(part[len("max-age="):])
			if !ok {
				return cc, false
			}
			cc.MaxAge, cc.HasMaxAge = age, true
		}
	}
	return cc, true
}

// hasPrefixFold reports whether b starts with the ASCII prefix ignoring case.
func hasPrefixFold(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && equalFold(b[:len(prefix)], prefix)
}

// parseDecimalU32 parses an unsigned decimal that must fit in 32 bits.
// No signs, no whitespace, no digit separators.
func parseDecimalU32(b []byte) (uint32, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > math.MaxUint32 {
			return 0, false
		}
	}
	return uint32(n), true
}

// parseDecimalU64 parses an unsigned decimal that must fit in 64 bits.
func parseDecimalU64(b []byte) (uint64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		if n > (math.MaxUint64-uint64(c-'0'))/10 {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	return n, true
}
