package utils

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Page is the envelope returned by every list endpoint
type Page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

type Pagination struct {
	Page    int
	PerPage int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Paginate reads page and per_page from the query string. per_page is capped
// at MaxPageSize.
func Paginate(c *gin.Context) (Pagination, error) {
	p := Pagination{Page: 1, PerPage: DefaultPageSize}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return p, &ValidationFailed{Field: "page", Rule: "invalid page"}
		}
		p.Page = page
	}

	if raw := c.Query("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			return p, &ValidationFailed{Field: "per_page", Rule: "invalid page size"}
		}
		p.PerPage = min(perPage, MaxPageSize)
	}

	return p, nil
}

func NewPage(c *gin.Context, p Pagination, count int64, results interface{}) Page {
	page := Page{Count: count, Results: results}
	if int64(p.Page*p.PerPage) < count {
		next := pageURL(c.Request.URL, p.Page+1)
		page.Next = &next
	}
	if p.Page > 1 {
		previous := pageURL(c.Request.URL, p.Page-1)
		page.Previous = &previous
	}
	return page
}

func pageURL(u *url.URL, page int) string {
	q := u.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	if encoded := q.Encode(); encoded != "" {
		return fmt.Sprintf("%s?%s", u.Path, encoded)
	}
	return u.Path
}
