package stub

import (
	"net/http"
	"net/url"

	"github.com/getstubd/stubd/pkg/form"
)

// Request is the view of an inbound request exposed to filters and to
// status/body functions. The body has already been read; for POST/PUT form
// requests the decoded field and file maps are populated before dispatch.
type Request struct {
	// Method is the HTTP method as received.
	Method string

	// Path is the request pathname, without the query string.
	Path string

	// Query holds the parsed query parameters. Query values never
	// participate in matching.
	Query url.Values

	// Header holds the request headers.
	Header http.Header

	// Body is the raw request body.
	Body []byte

	// Fields maps form field names to a string, or []string when the
	// field was repeated. Empty unless the request carried a decodable
	// form body.
	Fields map[string]any

	// Files maps file field names to a *form.File, or []*form.File when
	// repeated. Empty unless the request carried multipart file parts.
	Files map[string]any

	// RemoteAddr is the client address.
	RemoteAddr string

	// HTTP is the underlying request, for filters that need more than the
	// fields above.
	HTTP *http.Request
}

// newRequest builds the dispatch view of r with the body already consumed
// into body. Form decoding errors are swallowed: the maps stay empty and
// dispatch proceeds.
func newRequest(r *http.Request, body []byte) *Request {
	fields, files := form.Decode(r, body)
	return &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Header:     r.Header,
		Body:       body,
		Fields:     fields,
		Files:      files,
		RemoteAddr: r.RemoteAddr,
		HTTP:       r,
	}
}

// Field returns the named form field as a string. For repeated fields the
// first value is returned; missing fields yield "".
func (r *Request) Field(name string) string {
	switch v := r.Fields[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// File returns the named uploaded file. For repeated file fields the first
// one is returned; missing fields yield nil.
func (r *Request) File(name string) *form.File {
	switch v := r.Files[name].(type) {
	case *form.File:
		return v
	case []*form.File:
		if len(v) > 0 {
			return v[0]
		}
	}
	return nil
}
