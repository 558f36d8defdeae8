package request

import (
	"net/url"

	"travel-booking/pkg/utils"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PaginatedRequest is a 1-based page window over a booking listing.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// PageFromQuery reads ?page= and ?per_page=. Missing or malformed values
// fall back to the first page of perPage rows.
func PageFromQuery(query url.Values, perPage int) PaginatedRequest {
	return PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), perPage),
	}
}

func (p PaginatedRequest) CurrentPage() int {
	return max(p.Page, 1)
}

// Limit clamps PerPage into [1, MaxPerPage].
func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return DefaultPerPage
	}
	return min(p.PerPage, MaxPerPage)
}

// Offset follows the clamped limit so pages never overlap or skip rows.
func (p PaginatedRequest) Offset() int {
	return (p.CurrentPage() - 1) * p.Limit()
}
