// Package filter compiles expression strings from stub files into request
// predicates. Expressions use expr-lang syntax and see the request as a
// small environment: method, path, query, headers, fields, and body.
//
//	method == "POST" && query.page == "2"
//	headers["x-api-key"] != ""
//	fields.name == "Ada"
package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getstubd/stubd/pkg/stub"
)

// Program is a compiled predicate. It satisfies stub.Filter, so it can be
// assigned directly to a handler's Filter field.
type Program struct {
	src  string
	prog *vm.Program
}

// Compile compiles an expression into a Program. The expression must
// evaluate to a boolean.
func Compile(src string) (*Program, error) {
	prog, err := expr.Compile(src, expr.Env(environment(nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return &Program{src: src, prog: prog}, nil
}

// Matches implements stub.Filter. Evaluation errors count as no match.
func (p *Program) Matches(r *stub.Request) bool {
	out, err := expr.Run(p.prog, environment(r))
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// String returns the source expression.
func (p *Program) String() string { return p.src }

// environment builds the evaluation environment for a request. A nil
// request yields the empty environment used for type-checking at compile
// time. Repeated query parameters and headers expose their first value;
// header names are lowercased.
func environment(r *stub.Request) map[string]any {
	env := map[string]any{
		"method":  "",
		"path":    "",
		"body":    "",
		"query":   map[string]string{},
		"headers": map[string]string{},
		"fields":  map[string]any{},
	}
	if r == nil {
		return env
	}

	query := map[string]string{}
	for name, values := range r.Query {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}
	headers := map[string]string{}
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	env["method"] = r.Method
	env["path"] = r.Path
	env["body"] = string(r.Body)
	env["query"] = query
	env["headers"] = headers
	if r.Fields != nil {
		env["fields"] = r.Fields
	}
	return env
}
