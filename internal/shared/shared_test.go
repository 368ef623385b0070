package shared

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationBounds(t *testing.T) {
	cases := []struct {
		query      string
		total      int
		page, per  int
		start, end int
		pages      int
	}{
		{"", 45, 1, 20, 0, 20, 3},
		{"page=3", 45, 3, 20, 40, 45, 3},
		{"page=9", 45, 9, 20, 45, 45, 3},
		{"page=-1&per_page=abc", 5, 1, 20, 0, 5, 1},
		{"per_page=1000", 2000, 1, 500, 0, 500, 4},
		{"", 0, 1, 20, 0, 0, 0},
	}
	for _, tc := range cases {
		q, _ := url.ParseQuery(tc.query)
		p := PaginationFromQuery(q, tc.total)
		start, end := p.Bounds()
		assert.Equal(t, tc.page, p.Page, tc.query)
		assert.Equal(t, tc.per, p.PerPage, tc.query)
		assert.Equal(t, tc.pages, p.TotalPages, tc.query)
		assert.Equal(t, tc.start, start, tc.query)
		assert.Equal(t, tc.end, end, tc.query)
	}
}

func TestOwnerFromContext(t *testing.T) {
	assert.Empty(t, OwnerFromContext(context.Background()))

	a := OwnerFromContext(ContextWithToken(context.Background(), "token-a"))
	b := OwnerFromContext(ContextWithToken(context.Background(), "token-b"))
	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, OwnerFromContext(ContextWithToken(context.Background(), "token-a")))
	assert.NotContains(t, a, "token")
}
