package filter

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getstubd/stubd/pkg/stub"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	t.Run("valid expression compiles", func(t *testing.T) {
		t.Parallel()
		p, err := Compile(`method == "GET"`)
		require.NoError(t, err)
		assert.Equal(t, `method == "GET"`, p.String())
	})

	t.Run("syntax error is reported", func(t *testing.T) {
		t.Parallel()
		_, err := Compile(`method ==`)
		assert.Error(t, err)
	})

	t.Run("non-boolean expression is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Compile(`path`)
		assert.Error(t, err)
	})
}

func TestProgramMatches(t *testing.T) {
	t.Parallel()

	req := &stub.Request{
		Method: http.MethodPost,
		Path:   "/users",
		Query:  url.Values{"page": {"2", "3"}},
		Header: http.Header{"X-Api-Key": {"secret"}},
		Body:   []byte(`{"name":"Ada"}`),
		Fields: map[string]any{"name": "Ada"},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"method", `method == "POST"`, true},
		{"method negative", `method == "GET"`, false},
		{"path", `path == "/users"`, true},
		{"query first value", `query.page == "2"`, true},
		{"headers are lowercased", `headers["x-api-key"] == "secret"`, true},
		{"body substring", `body contains "Ada"`, true},
		{"form field", `fields.name == "Ada"`, true},
		{"combined", `method == "POST" && query.page == "2"`, true},
		{"missing query key", `query.missing == "x"`, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Matches(req))
		})
	}
}

func TestProgramMatchesEmptyRequest(t *testing.T) {
	t.Parallel()

	p, err := Compile(`method == "GET"`)
	require.NoError(t, err)
	assert.False(t, p.Matches(&stub.Request{Method: http.MethodPost}))
	assert.True(t, p.Matches(&stub.Request{Method: http.MethodGet}))
}
