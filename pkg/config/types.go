// Package config loads declarative stub files (YAML) and converts them
// into handlers for registration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/getstubd/stubd/pkg/filter"
	"github.com/getstubd/stubd/pkg/stub"
)

// Conversion errors.
var (
	ErrMissingPath   = errors.New("stub is missing a path")
	ErrNegativeDelay = errors.New("delay must be non-negative")
)

// StubFile is the top-level document of a stub file.
type StubFile struct {
	// Stubs are the handlers to register, in file order. File order is
	// registration order, so earlier stubs win on overlap.
	Stubs []*StubConfig `yaml:"stubs" json:"stubs"`
}

// StubConfig describes one handler declaratively.
type StubConfig struct {
	// Method is the HTTP verb to match, "*" for any. Defaults to GET.
	Method string `yaml:"method,omitempty" json:"method,omitempty"`

	// Path is the exact pathname to match. Required.
	Path string `yaml:"path" json:"path"`

	// Filter is an optional expr-lang predicate over the request.
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`

	// Status is the response code. 0 means the default (200).
	Status int `yaml:"status,omitempty" json:"status,omitempty"`

	// Body is the literal response body.
	Body string `yaml:"body,omitempty" json:"body,omitempty"`

	// Headers are merged over the defaults. An explicit null value
	// suppresses the header entirely:
	//
	//	headers:
	//	  content-type: null
	Headers map[string]*string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// HeaderOverrides are applied last, winning over computed headers.
	HeaderOverrides map[string]string `yaml:"headerOverrides,omitempty" json:"headerOverrides,omitempty"`

	// DelayMs delays the response by the given number of milliseconds.
	DelayMs int `yaml:"delayMs,omitempty" json:"delayMs,omitempty"`
}

// Handler converts the declarative stub into a registrable handler,
// compiling its filter expression if present.
func (c *StubConfig) Handler() (stub.Handler, error) {
	if c.Path == "" {
		return stub.Handler{}, ErrMissingPath
	}
	if c.DelayMs < 0 {
		return stub.Handler{}, fmt.Errorf("%w: %d", ErrNegativeDelay, c.DelayMs)
	}

	h := stub.Handler{
		Method: c.Method,
		Path:   c.Path,
		Delay:  time.Duration(c.DelayMs) * time.Millisecond,
	}
	if c.Status != 0 {
		h.Reply.Status = stub.Status(c.Status)
	}
	if c.Body != "" {
		h.Reply.Body = stub.BodyString(c.Body)
	}
	if len(c.Headers) > 0 {
		h.Reply.Headers = make(map[string]stub.HeaderValue, len(c.Headers))
		for name, value := range c.Headers {
			if value == nil {
				h.Reply.Headers[name] = stub.Suppress()
			} else {
				h.Reply.Headers[name] = stub.Header(*value)
			}
		}
	}
	if len(c.HeaderOverrides) > 0 {
		h.Reply.HeaderOverrides = c.HeaderOverrides
	}
	if c.Filter != "" {
		prog, err := filter.Compile(c.Filter)
		if err != nil {
			return stub.Handler{}, fmt.Errorf("stub %s: %w", c.Path, err)
		}
		h.Filter = prog
	}
	return h, nil
}

// Handlers converts every stub in the file, preserving file order.
func (f *StubFile) Handlers() ([]stub.Handler, error) {
	handlers := make([]stub.Handler, 0, len(f.Stubs))
	for i, c := range f.Stubs {
		if c == nil {
			continue
		}
		h, err := c.Handler()
		if err != nil {
			return nil, fmt.Errorf("stub %d: %w", i, err)
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}
