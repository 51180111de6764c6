package twitter

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go-twitter-paging/paginate"
)

// restFetcher fetches pages of one REST collection through the client's
// account pool.
type restFetcher[T any] struct {
	c      *Client
	ep     Endpoint
	owner  owner
	decode DecodeFunc[T]
}

// FetchPage implements paginate.Fetcher.
func (f *restFetcher[T]) FetchPage(ctx context.Context, req paginate.FetchRequest) (*paginate.Page[T], error) {
	url, err := buildURL(f.ep, f.owner, req)
	if err != nil {
		return nil, err
	}
	res, err := f.c.get(ctx, f.ep, url)
	if err != nil {
		return nil, err
	}
	page, err := f.decode(res.body)
	if err != nil {
		return nil, paginate.Terminal(paginate.ReasonMalformed, fmt.Errorf("%s: %w", f.ep.Name, err))
	}
	page.RateLimit = parseRateLimit(res.hdrs)
	return page, nil
}

// pageSize resolves the initial page size of ep: its own default when it
// has one, else the config default, capped by the endpoint's maximum count.
func (c *Client) pageSize(ep Endpoint) int {
	n := c.cfg.DefaultPageSize
	if ep.DefaultCount > 0 {
		n = ep.DefaultCount
	}
	if ep.MaxCount > 0 {
		n = min(n, ep.MaxCount)
	}
	return n
}

func newWalker[T any](c *Client, name string, o owner, decode DecodeFunc[T]) *paginate.CursorWalker[T] {
	ep := endpoint(name)
	f := &restFetcher[T]{c: c, ep: ep, owner: o, decode: decode}
	return paginate.NewCursorWalker[T](f, collectionID(ep, o), c.pageSize(ep), paginate.WithPolicy(c.policy))
}

func newTimeline[T any](c *Client, name string, o owner, decode DecodeFunc[T]) *paginate.Timeline[T] {
	ep := endpoint(name)
	f := &restFetcher[T]{c: c, ep: ep, owner: o, decode: decode}
	return paginate.NewTimeline[T](f, collectionID(ep, o), c.pageSize(ep), paginate.WithPolicy(c.policy))
}
