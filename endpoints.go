package twitter

import "fmt"

const twitterAPIURL = "https://api.twitter.com"

// restBase is the prefix of every v1.1 REST endpoint.
const restBase = twitterAPIURL + "/1.1"

// bearerTokens is the list of known Twitter web-app bearer tokens.
var bearerTokens = []string{
	"AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA",
	"AAAAAAAAAAAAAAAAAAAAAFQODgEAAAAAVHTp76lzh3rFzcHbmHVvQxYYpTw%3DckAlMINMjmCwxUcaXbAN4XqJVdgMJaHqNOFgPMK0zN1qLqLQCF",
}

// BearerToken is the active bearer token (first in list).
var BearerToken = bearerTokens[0]

// pageMode is the addressing scheme of a collection endpoint.
type pageMode int

const (
	cursorMode pageMode = iota // next_cursor / previous_cursor
	idMode                     // since_id / max_id
)

// Endpoint describes one REST collection endpoint.
type Endpoint struct {
	Name string
	Path string
	// MaxCount is the largest count the endpoint accepts. Zero means the
	// endpoint takes no count parameter.
	MaxCount int
	// DefaultCount overrides the client's default page size for this
	// endpoint. It is still capped by MaxCount.
	DefaultCount int
	// RequiresAuth endpoints are never served through a guest token.
	RequiresAuth bool

	mode pageMode

	// uncapped endpoints take a count with no known maximum.
	uncapped bool
}

// URL returns the full URL for this endpoint, without query parameters.
func (e Endpoint) URL() string {
	return fmt.Sprintf("%s/%s.json", restBase, e.Path)
}

// EndpointURL returns the URL for a named operation, or an error if unknown.
func EndpointURL(operation string) (string, error) {
	ep, ok := Endpoints[operation]
	if !ok {
		return "", fmt.Errorf("unknown operation: %s", operation)
	}
	return ep.URL(), nil
}

// Endpoints maps operation names to their REST paths and limits.
var Endpoints = map[string]Endpoint{
	// Cursor collections.
	"Followers":           {Name: "Followers", Path: "followers/list", MaxCount: 200},
	"Following":           {Name: "Following", Path: "friends/list", MaxCount: 200},
	"FollowerIDs":         {Name: "FollowerIDs", Path: "followers/ids", MaxCount: 5000, DefaultCount: 500},
	"FollowingIDs":        {Name: "FollowingIDs", Path: "friends/ids", MaxCount: 5000, DefaultCount: 500},
	"ListMembers":         {Name: "ListMembers", Path: "lists/members", MaxCount: 5000},
	"ListSubscribers":     {Name: "ListSubscribers", Path: "lists/subscribers", MaxCount: 5000},
	"ListMemberships":     {Name: "ListMemberships", Path: "lists/memberships", MaxCount: 1000},
	"ListOwnerships":      {Name: "ListOwnerships", Path: "lists/ownerships", MaxCount: 1000},
	"ListSubscriptions":   {Name: "ListSubscriptions", Path: "lists/subscriptions", MaxCount: 1000},
	"Mutes":               {Name: "Mutes", Path: "mutes/users/list", RequiresAuth: true},
	"MutedIDs":            {Name: "MutedIDs", Path: "mutes/users/ids", RequiresAuth: true},
	"Blocks":              {Name: "Blocks", Path: "blocks/list", RequiresAuth: true},
	"BlockedIDs":          {Name: "BlockedIDs", Path: "blocks/ids", RequiresAuth: true},
	"IncomingFriendships": {Name: "IncomingFriendships", Path: "friendships/incoming", RequiresAuth: true},
	"OutgoingFriendships": {Name: "OutgoingFriendships", Path: "friendships/outgoing", RequiresAuth: true},
	"RetweetersOf":        {Name: "RetweetersOf", Path: "statuses/retweeters/ids"},

	// ID timelines.
	"UserTimeline":           {Name: "UserTimeline", Path: "statuses/user_timeline", MaxCount: 200, mode: idMode},
	"HomeTimeline":           {Name: "HomeTimeline", Path: "statuses/home_timeline", MaxCount: 200, RequiresAuth: true, mode: idMode},
	"MentionsTimeline":       {Name: "MentionsTimeline", Path: "statuses/mentions_timeline", MaxCount: 200, RequiresAuth: true, mode: idMode},
	"Likes":                  {Name: "Likes", Path: "favorites/list", MaxCount: 200, mode: idMode},
	"ListTimeline":           {Name: "ListTimeline", Path: "lists/statuses", MaxCount: 200, mode: idMode},
	"RetweetsOfMe":           {Name: "RetweetsOfMe", Path: "statuses/retweets_of_me", MaxCount: 100, RequiresAuth: true, mode: idMode},
	"DirectMessagesReceived": {Name: "DirectMessagesReceived", Path: "direct_messages", MaxCount: 200, RequiresAuth: true, mode: idMode},
	"DirectMessagesSent":     {Name: "DirectMessagesSent", Path: "direct_messages/sent", MaxCount: 200, RequiresAuth: true, mode: idMode},
}

// endpoint looks up a known operation. Unknown names are programming errors.
func endpoint(name string) Endpoint {
	ep, ok := Endpoints[name]
	if !ok {
		panic("twitter: unknown endpoint " + name)
	}
	return ep
}
