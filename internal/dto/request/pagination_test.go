package request

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginatedRequest_Window(t *testing.T) {
	tests := []struct {
		name   string
		req    PaginatedRequest
		limit  int
		offset int
	}{
		{"first page", PaginatedRequest{Page: 1, PerPage: 10}, 10, 0},
		{"third page", PaginatedRequest{Page: 3, PerPage: 25}, 25, 50},
		{"page below one", PaginatedRequest{Page: 0, PerPage: 10}, 10, 0},
		{"missing per page", PaginatedRequest{Page: 2}, DefaultPerPage, DefaultPerPage},
		{"per page clamped", PaginatedRequest{Page: 2, PerPage: 500}, MaxPerPage, MaxPerPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.limit, tt.req.Limit())
			assert.Equal(t, tt.offset, tt.req.Offset())
		})
	}
}

func TestPageFromQuery(t *testing.T) {
	p := PageFromQuery(url.Values{"page": {"4"}, "per_page": {"5"}}, 10)
	assert.Equal(t, PaginatedRequest{Page: 4, PerPage: 5}, p)
	assert.Equal(t, 4, p.CurrentPage())

	p = PageFromQuery(url.Values{"page": {"x"}}, 10)
	assert.Equal(t, PaginatedRequest{Page: 1, PerPage: 10}, p)
}
