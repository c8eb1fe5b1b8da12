package service

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50

	// MaxPage keeps (page-1)*limit inside int for every allowed limit. Pages
	// past it are well beyond any table, so they read as empty.
	MaxPage = math.MaxInt / MaxLimit
)

// Paging is a normalized page request.
type Paging struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Paging) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePaging normalizes raw page and limit query values. Missing, zero or
// unparsable values fall back to the defaults; page is clamped to
// [1, MaxPage] and limit to [1, MaxLimit].
func ParsePaging(rawPage, rawLimit string) Paging {
	page := parseOr(rawPage, DefaultPage)
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit := parseOr(rawLimit, DefaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Paging{Page: page, Limit: limit}
}

func parseOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	// Out of range values saturate to math.MaxInt or math.MinInt.
	if errors.Is(err, strconv.ErrRange) {
		return n
	}
	if err != nil || n == 0 {
		return fallback
	}
	return n
}
