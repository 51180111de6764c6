package twitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-twitter-paging/paginate"
)

// twitterTimeLayout is the created_at format of every v1.1 object.
const twitterTimeLayout = "Mon Jan 02 15:04:05 +0000 2006"

var tokenMentionRe = regexp.MustCompile(`\$([A-Z]{2,10})`)

// DecodeFunc turns a response body into a page of items.
type DecodeFunc[T any] func(body []byte) (*paginate.Page[T], error)

// flexID accepts an ID encoded either as a JSON number or a string.
type flexID uint64

func (id *flexID) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %s: %w", s, err)
	}
	*id = flexID(v)
	return nil
}

// cursorEnvelope holds the cursor fields every cursored response carries.
type cursorEnvelope struct {
	NextCursor        int64  `json:"next_cursor"`
	NextCursorStr     string `json:"next_cursor_str"`
	PreviousCursor    int64  `json:"previous_cursor"`
	PreviousCursorStr string `json:"previous_cursor_str"`
}

func (e cursorEnvelope) cursors() (next, previous paginate.Cursor) {
	next = paginate.Cursor(e.NextCursorStr)
	if next == "" {
		next = paginate.Cursor(strconv.FormatInt(e.NextCursor, 10))
	}
	previous = paginate.Cursor(e.PreviousCursorStr)
	if previous == "" {
		previous = paginate.Cursor(strconv.FormatInt(e.PreviousCursor, 10))
	}
	return next, previous
}

// restUser is the v1.1 user object.
type restUser struct {
	IDStr               string `json:"id_str"`
	Name                string `json:"name"`
	ScreenName          string `json:"screen_name"`
	Description         string `json:"description"`
	FollowersCount      int    `json:"followers_count"`
	FriendsCount        int    `json:"friends_count"`
	StatusesCount       int    `json:"statuses_count"`
	ListedCount         int    `json:"listed_count"`
	CreatedAt           string `json:"created_at"`
	Verified            bool   `json:"verified"`
	Protected           bool   `json:"protected"`
	ProfileImageURL     string `json:"profile_image_url_https"`
	DefaultProfileImage bool   `json:"default_profile_image"`
}

// restTweet is the v1.1 status object in extended mode.
type restTweet struct {
	IDStr                string `json:"id_str"`
	FullText             string `json:"full_text"`
	Text                 string `json:"text"`
	CreatedAt            string `json:"created_at"`
	FavoriteCount        int    `json:"favorite_count"`
	RetweetCount         int    `json:"retweet_count"`
	QuoteCount           int    `json:"quote_count"`
	InReplyToStatusIDStr string `json:"in_reply_to_status_id_str"`
	User                 struct {
		IDStr string `json:"id_str"`
	} `json:"user"`
}

// restList is the v1.1 list object.
type restList struct {
	IDStr           string   `json:"id_str"`
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	MemberCount     int      `json:"member_count"`
	SubscriberCount int      `json:"subscriber_count"`
	Mode            string   `json:"mode"`
	CreatedAt       string   `json:"created_at"`
	User            restUser `json:"user"`
}

// restDM is the v1.1 direct message object.
type restDM struct {
	IDStr          string `json:"id_str"`
	SenderIDStr    string `json:"sender_id_str"`
	RecipientIDStr string `json:"recipient_id_str"`
	Text           string `json:"text"`
	CreatedAt      string `json:"created_at"`
}

// ParseUsersPage parses followers/list, friends/list, lists/members,
// mutes/users/list and the like.
func ParseUsersPage(body []byte) (*paginate.Page[*TwitterUser], error) {
	var raw struct {
		cursorEnvelope
		Users []restUser `json:"users"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal user page: %w", err)
	}
	users := make([]*TwitterUser, 0, len(raw.Users))
	for _, r := range raw.Users {
		u, err := parseUser(r)
		if err != nil {
			slog.Debug("skip user parse error", slog.Any("error", err))
			continue
		}
		users = append(users, u)
	}
	next, prev := raw.cursors()
	return &paginate.Page[*TwitterUser]{Items: users, NextCursor: next, PreviousCursor: prev, Received: len(raw.Users)}, nil
}

// ParseIDsPage parses followers/ids, friends/ids, mutes/users/ids,
// blocks/ids, friendships/incoming|outgoing and statuses/retweeters/ids.
func ParseIDsPage(body []byte) (*paginate.Page[uint64], error) {
	var raw struct {
		cursorEnvelope
		IDs []flexID `json:"ids"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal id page: %w", err)
	}
	ids := make([]uint64, len(raw.IDs))
	for i, id := range raw.IDs {
		ids[i] = uint64(id)
	}
	next, prev := raw.cursors()
	return &paginate.Page[uint64]{Items: ids, NextCursor: next, PreviousCursor: prev}, nil
}

// ParseListsPage parses lists/memberships, lists/ownerships and
// lists/subscriptions.
func ParseListsPage(body []byte) (*paginate.Page[*List], error) {
	var raw struct {
		cursorEnvelope
		Lists []restList `json:"lists"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal list page: %w", err)
	}
	lists := make([]*List, 0, len(raw.Lists))
	for _, r := range raw.Lists {
		if r.IDStr == "" {
			continue
		}
		lists = append(lists, &List{
			ID:              r.IDStr,
			Slug:            r.Slug,
			Name:            r.Name,
			Description:     strings.TrimSpace(r.Description),
			OwnerID:         r.User.IDStr,
			MemberCount:     r.MemberCount,
			SubscriberCount: r.SubscriberCount,
			Private:         r.Mode == "private",
			CreatedAt:       parseTwitterTime(r.CreatedAt),
		})
	}
	next, prev := raw.cursors()
	return &paginate.Page[*List]{Items: lists, NextCursor: next, PreviousCursor: prev}, nil
}

// ParseTweetsPage parses a status array, newest first.
func ParseTweetsPage(body []byte) (*paginate.Page[*Tweet], error) {
	var raw []restTweet
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal tweet page: %w", err)
	}
	page := &paginate.Page[*Tweet]{Items: make([]*Tweet, 0, len(raw)), Received: len(raw)}
	for _, r := range raw {
		t, id, err := parseTweet(r)
		if err != nil {
			slog.Debug("skip tweet parse error", slog.Any("error", err))
			continue
		}
		page.Items = append(page.Items, t)
		widen(&page.MinID, &page.MaxID, id)
	}
	return page, nil
}

// ParseDirectMessagesPage parses a direct message array, newest first.
func ParseDirectMessagesPage(body []byte) (*paginate.Page[*DirectMessage], error) {
	var raw []restDM
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal direct message page: %w", err)
	}
	page := &paginate.Page[*DirectMessage]{Items: make([]*DirectMessage, 0, len(raw)), Received: len(raw)}
	for _, r := range raw {
		id, err := strconv.ParseUint(r.IDStr, 10, 64)
		if err != nil {
			slog.Debug("skip direct message with bad id", slog.String("id", r.IDStr))
			continue
		}
		page.Items = append(page.Items, &DirectMessage{
			ID:          r.IDStr,
			SenderID:    r.SenderIDStr,
			RecipientID: r.RecipientIDStr,
			Text:        r.Text,
			CreatedAt:   parseTwitterTime(r.CreatedAt),
		})
		widen(&page.MinID, &page.MaxID, id)
	}
	return page, nil
}

// widen extends [lo, hi] to include id. Zero bounds are unset.
func widen(lo, hi *uint64, id uint64) {
	if *lo == 0 || id < *lo {
		*lo = id
	}
	if id > *hi {
		*hi = id
	}
}

func parseUser(r restUser) (*TwitterUser, error) {
	if r.IDStr == "" {
		return nil, fmt.Errorf("empty user id_str (screen_name=%s)", r.ScreenName)
	}
	bio := strings.TrimSpace(r.Description)
	return &TwitterUser{
		ID:          r.IDStr,
		Handle:      r.ScreenName,
		DisplayName: r.Name,
		Bio:         bio,
		Followers:   r.FollowersCount,
		Following:   r.FriendsCount,
		TweetCount:  r.StatusesCount,
		ListedCount: r.ListedCount,
		CreatedAt:   parseTwitterTime(r.CreatedAt),
		IsVerified:  r.Verified,
		IsProtected: r.Protected,
		HasAvatar:   r.ProfileImageURL != "" && !r.DefaultProfileImage && !strings.Contains(r.ProfileImageURL, "default_profile"),
		HasBio:      bio != "",
	}, nil
}

func parseTweet(r restTweet) (*Tweet, uint64, error) {
	id, err := strconv.ParseUint(r.IDStr, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("tweet id %q: %w", r.IDStr, err)
	}
	text := r.FullText
	if text == "" {
		text = r.Text
	}
	return &Tweet{
		ID:            r.IDStr,
		AuthorID:      r.User.IDStr,
		Text:          text,
		CreatedAt:     parseTwitterTime(r.CreatedAt),
		Likes:         r.FavoriteCount,
		Retweets:      r.RetweetCount,
		Quotes:        r.QuoteCount,
		InReplyToID:   r.InReplyToStatusIDStr,
		TokenMentions: extractTokenMentions(text),
	}, id, nil
}

func parseTwitterTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(twitterTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func extractTokenMentions(text string) []string {
	matches := tokenMentionRe.FindAllStringSubmatch(strings.ToUpper(text), -1)
	seen := make(map[string]bool)
	var result []string
	for _, m := range matches {
		if len(m) >= 2 && !seen[m[1]] {
			seen[m[1]] = true
			result = append(result, m[1])
		}
	}
	return result
}
