package twitter

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/anatolykoptev/go-twitter-paging/paginate"
	"github.com/google/go-querystring/query"
)

// owner is the account, list or tweet a collection belongs to. All zero
// means the authenticated account. params carries the extra query
// parameters of collections built by NewCursorCollection and friends.
type owner struct {
	userID  uint64
	listID  uint64
	tweetID uint64
	params  url.Values
}

func (o owner) String() string {
	var s string
	switch {
	case o.tweetID != 0:
		s = "tweet:" + strconv.FormatUint(o.tweetID, 10)
	case o.listID != 0:
		s = "list:" + strconv.FormatUint(o.listID, 10)
	case o.userID != 0:
		s = "user:" + strconv.FormatUint(o.userID, 10)
	default:
		s = "self"
	}
	if len(o.params) > 0 {
		s += "?" + o.params.Encode()
	}
	return s
}

// collectionID names a collection for logging and paging identity.
func collectionID(ep Endpoint, o owner) string {
	return ep.Path + ":" + o.String()
}

// pagingKeys are always set by the engine and never taken from owner.params.
var pagingKeys = []string{"cursor", "count", "since_id", "max_id"}

// cursorParams are the query parameters of cursor collections.
type cursorParams struct {
	ID           uint64 `url:"id,omitempty"`
	UserID       uint64 `url:"user_id,omitempty"`
	ListID       uint64 `url:"list_id,omitempty"`
	Cursor       string `url:"cursor,omitempty"`
	Count        int    `url:"count,omitempty"`
	StringifyIDs bool   `url:"stringify_ids,omitempty"`
	SkipStatus   bool   `url:"skip_status,omitempty"`
}

// timelineParams are the query parameters of ID timelines.
type timelineParams struct {
	UserID    uint64 `url:"user_id,omitempty"`
	ListID    uint64 `url:"list_id,omitempty"`
	Count     int    `url:"count,omitempty"`
	SinceID   uint64 `url:"since_id,omitempty"`
	MaxID     uint64 `url:"max_id,omitempty"`
	TweetMode string `url:"tweet_mode,omitempty"`
	FullText  bool   `url:"full_text,omitempty"`
}

// buildURL renders the request URL for one page of ep.
func buildURL(ep Endpoint, o owner, req paginate.FetchRequest) (string, error) {
	count := 0
	switch {
	case ep.MaxCount > 0:
		count = min(req.PageSize, ep.MaxCount)
	case ep.uncapped:
		count = req.PageSize
	}

	var params any
	switch ep.mode {
	case idMode:
		params = timelineParams{
			UserID:    o.userID,
			ListID:    o.listID,
			Count:     count,
			SinceID:   req.SinceID,
			MaxID:     req.MaxID,
			TweetMode: "extended",
			FullText:  true,
		}
	default:
		cursor := req.Cursor
		if cursor == "" {
			cursor = paginate.CursorStart
		}
		params = cursorParams{
			UserID:       o.userID,
			ListID:       o.listID,
			Cursor:       string(cursor),
			Count:        count,
			StringifyIDs: true,
			SkipStatus:   true,
		}
	}

	v, err := query.Values(params)
	if err != nil {
		return "", paginate.Terminal(paginate.ReasonBadArgument, fmt.Errorf("encode %s query: %w", ep.Name, err))
	}
	for k, vs := range o.params {
		if !slices.Contains(pagingKeys, k) {
			v[k] = vs
		}
	}
	return ep.URL() + "?" + v.Encode(), nil
}
