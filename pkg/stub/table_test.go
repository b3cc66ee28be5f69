package stub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerTable(t *testing.T) {
	t.Parallel()

	t.Run("first registered wins on overlap", func(t *testing.T) {
		t.Parallel()
		tbl := newHandlerTable()
		tbl.add(Handler{Path: "/a", Reply: Reply{Body: BodyString("one")}})
		tbl.add(Handler{Path: "/a", Reply: Reply{Body: BodyString("two")}})

		h := tbl.match(&Request{Method: "GET", Path: "/a"})
		require.NotNil(t, h)
		assert.Equal(t, []byte("one"), h.Reply.Body.resolveBody(nil))
	})

	t.Run("scan falls through non-matching handlers", func(t *testing.T) {
		t.Parallel()
		tbl := newHandlerTable()
		tbl.add(Handler{Method: "POST", Path: "/a"})
		tbl.add(Handler{Method: "GET", Path: "/a", Reply: Reply{Status: Status(202)}})

		h := tbl.match(&Request{Method: "GET", Path: "/a"})
		require.NotNil(t, h)
		assert.Equal(t, 202, h.Reply.Status.resolveStatus(nil))
	})

	t.Run("no match returns nil", func(t *testing.T) {
		t.Parallel()
		tbl := newHandlerTable()
		tbl.add(Handler{Path: "/a"})
		assert.Nil(t, tbl.match(&Request{Method: "GET", Path: "/b"}))
	})

	t.Run("reset empties the table", func(t *testing.T) {
		t.Parallel()
		tbl := newHandlerTable()
		tbl.add(Handler{Path: "/a"})
		require.Equal(t, 1, tbl.size())

		tbl.reset()
		assert.Zero(t, tbl.size())
		assert.Nil(t, tbl.match(&Request{Method: "GET", Path: "/a"}))
	})
}
