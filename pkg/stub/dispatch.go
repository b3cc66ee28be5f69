package stub

import (
	"io"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/getstubd/stubd/pkg/requestlog"
)

// Fixed default response, returned for every request that matches no
// handler, regardless of method.
const (
	defaultStatus      = http.StatusNotFound
	defaultContentType = "plain/text"
	defaultBody        = "Not Found"
)

// ServeHTTP implements http.Handler. It walks the handler table in
// registration order, resolves the first match's body and status (body
// first; both may be derived from the request), composes the final header
// set, honors the configured delay, and writes the response. Requests that
// match nothing get the fixed default response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
	}
	req := newRequest(r, body)

	h := s.table.match(req)
	if h == nil {
		s.log.Debug("no handler matched", "method", req.Method, "path", req.Path)
		writeDefault(w, req.Method)
		s.logRequest(start, req, "", defaultStatus)
		return
	}

	// Body resolves before status: both may complete asynchronously and
	// response construction depends on both.
	respBody := h.Reply.Body.resolveBody(req)
	status := h.Reply.Status.resolveStatus(req)

	headers, suppressed := h.responseHeaders(len(respBody))

	if h.Delay > 0 {
		time.Sleep(h.Delay)
	}

	out := w.Header()
	for name, value := range headers {
		out.Set(name, value)
	}
	// Assigning a nil slice disables the transport's own default for the
	// key (content-type sniffing, the automatic date header).
	for _, name := range suppressed {
		out[name] = nil
	}

	// Literal status values pass through unchanged, but the HTTP stack
	// rejects codes outside the valid range, so those fall back to 200.
	if status < 100 || status > 999 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	// HEAD responses report the computed content-length but carry no body.
	if req.Method != http.MethodHead && len(respBody) > 0 {
		_, _ = w.Write(respBody)
	}

	s.log.Debug("request matched",
		"method", req.Method,
		"path", req.Path,
		"handler", h.Method+" "+h.Path,
		"status", status,
	)
	s.logRequest(start, req, h.Method+" "+h.Path, status)
}

// responseHeaders computes the final header set for a resolved body length.
// Precedence, later wins: base default, handler headers, computed
// content-length, header overrides. Suppressed keys are returned separately
// so the writer can disable them at the transport too.
func (h *Handler) responseHeaders(bodyLen int) (headers map[string]string, suppressed []string) {
	merged := map[string]HeaderValue{
		"Content-Type": Header("application/json"),
	}
	for name, value := range h.Reply.Headers {
		merged[textproto.CanonicalMIMEHeaderKey(name)] = value
	}
	merged["Content-Length"] = Header(strconv.Itoa(bodyLen))
	for name, value := range h.Reply.HeaderOverrides {
		merged[textproto.CanonicalMIMEHeaderKey(name)] = Header(value)
	}

	headers = make(map[string]string, len(merged))
	for name, value := range merged {
		if value.Suppressed() {
			suppressed = append(suppressed, name)
			continue
		}
		headers[name] = value.Value()
	}
	return headers, suppressed
}

// writeDefault writes the fixed not-found response. The default ignores
// the request method entirely, though HEAD still omits the body bytes.
func writeDefault(w http.ResponseWriter, method string) {
	out := w.Header()
	out.Set("Content-Type", defaultContentType)
	out.Set("Content-Length", strconv.Itoa(len(defaultBody)))
	w.WriteHeader(defaultStatus)
	if method != http.MethodHead {
		_, _ = w.Write([]byte(defaultBody))
	}
}

// logRequest records a served request in the request log, if one is set.
func (s *Server) logRequest(start time.Time, req *Request, matched string, status int) {
	if s.requests == nil {
		return
	}
	s.requests.Log(&requestlog.Entry{
		Timestamp:      start,
		Method:         req.Method,
		Path:           req.Path,
		QueryString:    req.HTTP.URL.RawQuery,
		RemoteAddr:     req.RemoteAddr,
		BodySize:       len(req.Body),
		MatchedHandler: matched,
		ResponseStatus: status,
		DurationMs:     int(time.Since(start).Milliseconds()),
	})
}
