package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 6
	maxPageSize     = 25
)

type pageParams struct {
	Number int
	Size   int
}

func (p pageParams) Offset() int { return (p.Number - 1) * p.Size }

// parsePageParams reads the `page` and `limit` query parameters. Bad or
// missing values fall back to the defaults; `limit` is capped.
func parsePageParams(c *gin.Context) pageParams {
	p := pageParams{Number: 1, Size: defaultPageSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Number = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.Size = v
		if p.Size > maxPageSize {
			p.Size = maxPageSize
		}
	}
	return p
}

// paginatedResponse is the list envelope: total count, absolute
// next/previous links and the page of results.
type paginatedResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func newPaginatedResponse(c *gin.Context, baseURL string, p pageParams, count int64, results interface{}) paginatedResponse {
	resp := paginatedResponse{Count: count, Results: results}

	lastPage := int((count + int64(p.Size) - 1) / int64(p.Size))
	if p.Number < lastPage {
		u := pageURL(c, baseURL, p.Number+1)
		resp.Next = &u
	}
	if p.Number > 1 {
		u := pageURL(c, baseURL, p.Number-1)
		resp.Previous = &u
	}
	return resp
}

func pageURL(c *gin.Context, baseURL string, page int) string {
	q := url.Values{}
	for k, vs := range c.Request.URL.Query() {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s%s?%s", baseURL, c.Request.URL.Path, q.Encode())
}
