package protocol

import "fmt"

// ParseKind classifies why a request failed to parse. Every kind maps to a
// 400 on the wire; the kind itself only feeds logs and metrics.
type ParseKind int

const (
	KindMissingMethod ParseKind = iota
	KindMissingResource
	KindMissingVersion
	KindBadVersion
	KindBadHeader
	KindBadEtag
	KindBadCacheControl
	KindBadContentLength
)

func (k ParseKind) String() string {
	switch k {
	case KindMissingMethod:
		return "missing_method"
	case KindMissingResource:
		return "missing_resource"
	case KindMissingVersion:
		return "missing_version"
	case KindBadVersion:
		return "bad_version"
	case KindBadHeader:
		return "bad_header"
	case KindBadEtag:
		return "bad_etag"
	case KindBadCacheControl:
		return "bad_cache_control"
	case KindBadContentLength:
		return "bad_content_length"
	default:
		return "unknown"
	}
}

// ParseError reports a malformed request with its classification and the
// offending token when one exists.
type ParseError struct {
	Kind  ParseKind
	Token string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse request: %s", e.Kind)
	}
	return fmt.Sprintf("parse request: %s (%q)", e.Kind, e.Token)
}

func parseErr(kind ParseKind, token []byte) *ParseError {
	e := &ParseError{Kind: kind}
	if len(token) > 0 {
		// Bound the echoed token so a hostile request cannot bloat logs
		if len(token) > 64 {
			token = token[:64]
		}
		e.Token = string(token)
	}
	return e
}
