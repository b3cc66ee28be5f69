package stub

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// MethodAny matches any HTTP method.
const MethodAny = "*"

// Filter is a predicate over an inbound request. A handler with a Filter
// only matches when the filter returns true in addition to the method and
// path matching.
type Filter interface {
	Matches(r *Request) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(r *Request) bool

// Matches implements Filter.
func (f FilterFunc) Matches(r *Request) bool { return f(r) }

// StatusSource supplies the response status code for a matched handler.
// Use Status for a literal code or StatusFunc to derive it from the request.
type StatusSource interface {
	resolveStatus(r *Request) int
}

type statusLiteral int

func (s statusLiteral) resolveStatus(*Request) int { return int(s) }

type statusFn func(r *Request) int

func (f statusFn) resolveStatus(r *Request) int { return f(r) }

// Status returns a StatusSource that always yields code. The value is
// passed through uncorrected, so a literal 0 stays 0 until write time.
func Status(code int) StatusSource { return statusLiteral(code) }

// StatusFunc returns a StatusSource that derives the code from the request.
func StatusFunc(fn func(r *Request) int) StatusSource { return statusFn(fn) }

// BodySource supplies the response body for a matched handler. A body is
// either a literal, a synchronous derivation from the request, or an
// asynchronous derivation that delivers its value through a continuation.
type BodySource interface {
	resolveBody(r *Request) []byte
}

type literalBody []byte

func (b literalBody) resolveBody(*Request) []byte { return []byte(b) }

type syncBody func(r *Request) []byte

func (f syncBody) resolveBody(r *Request) []byte { return f(r) }

type asyncBody func(r *Request, done func([]byte))

// resolveBody blocks until the continuation is called. There is no timeout:
// a handler that never calls its continuation hangs the response. Only the
// first continuation call is observed.
func (f asyncBody) resolveBody(r *Request) []byte {
	ch := make(chan []byte, 1)
	var once sync.Once
	f(r, func(b []byte) {
		once.Do(func() { ch <- b })
	})
	return <-ch
}

// BodyBytes returns a BodySource with a fixed byte body.
func BodyBytes(b []byte) BodySource { return literalBody(b) }

// BodyString returns a BodySource with a fixed string body.
func BodyString(s string) BodySource { return literalBody(s) }

// BodyFunc returns a BodySource that derives the body synchronously from
// the request.
func BodyFunc(fn func(r *Request) []byte) BodySource { return syncBody(fn) }

// BodyAsync returns a BodySource that computes the body asynchronously.
// The supplied function receives the request and a continuation; the
// response is written once the continuation is called with the final body.
func BodyAsync(fn func(r *Request, done func([]byte))) BodySource { return asyncBody(fn) }

// HeaderValue is either a present header value or an explicit suppression.
// A suppressed header is removed from the final header set, overriding any
// default (this is how a handler omits content-type entirely).
type HeaderValue struct {
	value    string
	suppress bool
}

// Header returns a present HeaderValue.
func Header(value string) HeaderValue { return HeaderValue{value: value} }

// Suppress returns a HeaderValue that removes the header from the response.
func Suppress() HeaderValue { return HeaderValue{suppress: true} }

// Value returns the header value. Empty for suppressed headers.
func (v HeaderValue) Value() string { return v.value }

// Suppressed reports whether the header is to be omitted from the response.
func (v HeaderValue) Suppressed() bool { return v.suppress }

// Reply describes the response a handler produces.
type Reply struct {
	// Status yields the response code. Defaults to a literal 200.
	Status StatusSource

	// Body yields the response body. Defaults to an empty body.
	Body BodySource

	// Headers are merged over the default header set
	// (content-type: application/json). A Suppress() value removes the
	// header entirely.
	Headers map[string]HeaderValue

	// HeaderOverrides are applied last and win over everything computed
	// before them, including the derived content-length.
	HeaderOverrides map[string]string
}

// Handler is a registered response rule. A handler matches a request when
// its method is MethodAny or equals the request method (case-insensitive),
// its path equals the request pathname exactly, and its Filter (if any)
// returns true.
type Handler struct {
	// Method is the HTTP verb to match, or MethodAny. Defaults to GET.
	Method string

	// Path is the exact pathname to match. Query strings never participate
	// in matching.
	Path string

	// Filter is an optional additional predicate.
	Filter Filter

	// Reply configures the response.
	Reply Reply

	// Delay is how long to wait before writing the response.
	Delay time.Duration
}

// withDefaults returns a copy of h with absent fields replaced by their
// defaults. Malformed handlers are not rejected; missing fields simply
// take defaults.
func (h Handler) withDefaults() *Handler {
	if h.Method == "" {
		h.Method = http.MethodGet
	}
	if h.Reply.Status == nil {
		h.Reply.Status = Status(http.StatusOK)
	}
	if h.Reply.Body == nil {
		h.Reply.Body = BodyString("")
	}
	if h.Reply.Headers == nil {
		h.Reply.Headers = map[string]HeaderValue{
			"Content-Type": Header("application/json"),
		}
	}
	return &h
}

// matches reports whether the handler matches the request.
func (h *Handler) matches(r *Request) bool {
	if h.Method != MethodAny && !strings.EqualFold(h.Method, r.Method) {
		return false
	}
	if h.Path != r.Path {
		return false
	}
	if h.Filter != nil && !h.Filter.Matches(r) {
		return false
	}
	return true
}
