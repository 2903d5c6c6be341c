// Package protocol implements the HTTP/1.x wire surface of the server:
// a single-shot request parser, the fixed response literals, the MIME table
// and the mtime-derived etag.
//
// The parser consumes exactly one socket read. Requests split across reads
// do not reassemble; each read is tokenized in isolation. Parsed fields are
// byte-slice views over a single arena-owned copy of the input, so a request
// stays valid until its connection's arena is released and costs one
// allocation to parse.
package protocol

import "bytes"

// Header is one request header with original casing preserved.
// Name and Value are views into arena memory.
type Header struct {
	Name  []byte
	Value []byte
}

// CacheControl holds the directives the server understands.
type CacheControl struct {
	NoCache   bool
	NoStore   bool
	MaxAge    uint32
	HasMaxAge bool
}

// Request is one parsed HTTP request. All byte slices are views into a
// single arena copy of the raw read; they must not be retained past the
// arena's release.
type Request struct {
	Method   []byte
	Resource []byte
	Version  []byte
	Headers  []Header
	Body     []byte

	// Typed fields parsed eagerly from known headers.
	Etag             uint32 // If-None-Match, decimal
	HasEtag          bool
	ContentLength    uint64
	HasContentLength bool
	Cache            CacheControl
}

// MethodIs reports whether the request method equals m exactly.
// Methods are case-sensitive tokens.
func (r *Request) MethodIs(m string) bool {
	return string(r.Method) == m
}

// Header returns the first header with the given name, case-insensitively.
func (r *Request) Header(name string) ([]byte, bool) {
	for _, h := range r.Headers {
		if equalFold(h.Name, name) {
			return h.Value, true
		}
	}
	return nil, false
}

// equalFold compares an ASCII byte slice against a string ignoring case.
func equalFold(b []byte, s string) bool {
	if len(b) != len(s) {
		return false
	}
	for i := 0; i < len(b); i++ {
		cb, cs := b[i], s[i]
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if 'A' <= cs && cs <= 'Z' {
			cs += 'a' - 'A'
		}
		if cb != cs {
			return false
		}
	}
	return true
}

// trimSpace drops leading and trailing spaces and tabs from a view without
// copying.
func trimSpace(b []byte) []byte {
	return bytes.Trim(b, " \t")
}
