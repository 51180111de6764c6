package twitter

import "time"

// TwitterUser represents a Twitter/X account profile.
type TwitterUser struct {
	ID          string
	Handle      string
	DisplayName string
	Bio         string
	Followers   int
	Following   int
	TweetCount  int
	ListedCount int
	CreatedAt   time.Time
	IsVerified  bool
	IsProtected bool
	HasAvatar   bool
	HasBio      bool
}

// Tweet represents a single tweet.
type Tweet struct {
	ID            string
	AuthorID      string
	Text          string
	CreatedAt     time.Time
	Likes         int
	Retweets      int
	Quotes        int
	InReplyToID   string
	TokenMentions []string // extracted $TICKER patterns, e.g. ["BTC", "ETH"]
}

// List is a curated list of accounts.
type List struct {
	ID              string
	Slug            string
	Name            string
	Description     string
	OwnerID         string
	MemberCount     int
	SubscriberCount int
	Private         bool
	CreatedAt       time.Time
}

// DirectMessage is a single private message between two accounts.
type DirectMessage struct {
	ID          string
	SenderID    string
	RecipientID string
	Text        string
	CreatedAt   time.Time
}
