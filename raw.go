package twitter

import (
	"net/url"

	"github.com/anatolykoptev/go-twitter-paging/paginate"
)

// rawEndpoint describes an endpoint that is not in Endpoints. path is
// relative to the v1.1 root and has no .json suffix. Such endpoints are
// always called with an account.
func rawEndpoint(path string, mode pageMode, countable bool) Endpoint {
	return Endpoint{Name: path, Path: path, RequiresAuth: true, mode: mode, uncapped: countable}
}

// NewCursorCollection walks a cursored endpoint the client has no named
// constructor for. params are sent with every page; cursor and count are
// always managed by the walker. A pageSize of zero or less sends no count.
func NewCursorCollection[T any](c *Client, path string, params url.Values, pageSize int, decode DecodeFunc[T]) *paginate.CursorWalker[T] {
	ep := rawEndpoint(path, cursorMode, pageSize > 0)
	o := owner{params: params}
	f := &restFetcher[T]{c: c, ep: ep, owner: o, decode: decode}
	return paginate.NewCursorWalker[T](f, collectionID(ep, o), pageSize, paginate.WithPolicy(c.policy))
}

// NewTweetTimeline is a timeline over any endpoint that returns a status
// array and accepts since_id and max_id.
func (c *Client) NewTweetTimeline(path string, params url.Values) *paginate.Timeline[*Tweet] {
	return newRawTimeline(c, path, params, ParseTweetsPage)
}

// NewDirectMessageTimeline is a timeline over any endpoint that returns a
// direct message array and accepts since_id and max_id.
func (c *Client) NewDirectMessageTimeline(path string, params url.Values) *paginate.Timeline[*DirectMessage] {
	return newRawTimeline(c, path, params, ParseDirectMessagesPage)
}

func newRawTimeline[T any](c *Client, path string, params url.Values, decode DecodeFunc[T]) *paginate.Timeline[T] {
	ep := rawEndpoint(path, idMode, true)
	o := owner{params: params}
	f := &restFetcher[T]{c: c, ep: ep, owner: o, decode: decode}
	return paginate.NewTimeline[T](f, collectionID(ep, o), c.pageSize(ep), paginate.WithPolicy(c.policy))
}
