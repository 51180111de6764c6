package twitter

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go-twitter-paging/paginate"
)

// Followers walks the accounts following userID.
func (c *Client) Followers(userID uint64) *paginate.CursorWalker[*TwitterUser] {
	return newWalker(c, "Followers", owner{userID: userID}, ParseUsersPage)
}

// Following walks the accounts userID follows.
func (c *Client) Following(userID uint64) *paginate.CursorWalker[*TwitterUser] {
	return newWalker(c, "Following", owner{userID: userID}, ParseUsersPage)
}

// FollowerIDs walks the IDs of the accounts following userID.
func (c *Client) FollowerIDs(userID uint64) *paginate.CursorWalker[uint64] {
	return newWalker(c, "FollowerIDs", owner{userID: userID}, ParseIDsPage)
}

// FollowingIDs walks the IDs of the accounts userID follows.
func (c *Client) FollowingIDs(userID uint64) *paginate.CursorWalker[uint64] {
	return newWalker(c, "FollowingIDs", owner{userID: userID}, ParseIDsPage)
}

// ListMembers walks the members of a list.
func (c *Client) ListMembers(listID uint64) *paginate.CursorWalker[*TwitterUser] {
	return newWalker(c, "ListMembers", owner{listID: listID}, ParseUsersPage)
}

// ListSubscribers walks the subscribers of a list.
func (c *Client) ListSubscribers(listID uint64) *paginate.CursorWalker[*TwitterUser] {
	return newWalker(c, "ListSubscribers", owner{listID: listID}, ParseUsersPage)
}

// ListMemberships walks the lists userID has been added to.
func (c *Client) ListMemberships(userID uint64) *paginate.CursorWalker[*List] {
	return newWalker(c, "ListMemberships", owner{userID: userID}, ParseListsPage)
}

// ListOwnerships walks the lists userID owns.
func (c *Client) ListOwnerships(userID uint64) *paginate.CursorWalker[*List] {
	return newWalker(c, "ListOwnerships", owner{userID: userID}, ParseListsPage)
}

// ListSubscriptions walks the lists userID subscribes to.
func (c *Client) ListSubscriptions(userID uint64) *paginate.CursorWalker[*List] {
	return newWalker(c, "ListSubscriptions", owner{userID: userID}, ParseListsPage)
}

// Mutes walks the accounts muted by the authenticated account.
func (c *Client) Mutes() *paginate.CursorWalker[*TwitterUser] {
	return newWalker(c, "Mutes", owner{}, ParseUsersPage)
}

// MutedIDs walks the IDs of the accounts muted by the authenticated account.
func (c *Client) MutedIDs() *paginate.CursorWalker[uint64] {
	return newWalker(c, "MutedIDs", owner{}, ParseIDsPage)
}

// Blocks walks the accounts blocked by the authenticated account.
func (c *Client) Blocks() *paginate.CursorWalker[*TwitterUser] {
	return newWalker(c, "Blocks", owner{}, ParseUsersPage)
}

// BlockedIDs walks the IDs of the accounts blocked by the authenticated account.
func (c *Client) BlockedIDs() *paginate.CursorWalker[uint64] {
	return newWalker(c, "BlockedIDs", owner{}, ParseIDsPage)
}

// IncomingFriendships walks pending follow requests to the authenticated account.
func (c *Client) IncomingFriendships() *paginate.CursorWalker[uint64] {
	return newWalker(c, "IncomingFriendships", owner{}, ParseIDsPage)
}

// OutgoingFriendships walks pending follow requests the authenticated account sent.
func (c *Client) OutgoingFriendships() *paginate.CursorWalker[uint64] {
	return newWalker(c, "OutgoingFriendships", owner{}, ParseIDsPage)
}

// RetweetersOf walks the IDs of the accounts that retweeted tweetID. The
// endpoint takes no page size.
func (c *Client) RetweetersOf(tweetID uint64) *paginate.CursorWalker[uint64] {
	return newWalker(c, "RetweetersOf", owner{tweetID: tweetID}, ParseIDsPage)
}

// UserTimeline is the tweets posted by userID.
func (c *Client) UserTimeline(userID uint64) *paginate.Timeline[*Tweet] {
	return newTimeline(c, "UserTimeline", owner{userID: userID}, ParseTweetsPage)
}

// HomeTimeline is the authenticated account's home feed.
func (c *Client) HomeTimeline() *paginate.Timeline[*Tweet] {
	return newTimeline(c, "HomeTimeline", owner{}, ParseTweetsPage)
}

// MentionsTimeline is the tweets mentioning the authenticated account.
func (c *Client) MentionsTimeline() *paginate.Timeline[*Tweet] {
	return newTimeline(c, "MentionsTimeline", owner{}, ParseTweetsPage)
}

// Likes is the tweets userID has liked.
func (c *Client) Likes(userID uint64) *paginate.Timeline[*Tweet] {
	return newTimeline(c, "Likes", owner{userID: userID}, ParseTweetsPage)
}

// ListTimeline is the tweets posted by the members of a list.
func (c *Client) ListTimeline(listID uint64) *paginate.Timeline[*Tweet] {
	return newTimeline(c, "ListTimeline", owner{listID: listID}, ParseTweetsPage)
}

// RetweetsOfMe is the authenticated account's tweets that others retweeted.
func (c *Client) RetweetsOfMe() *paginate.Timeline[*Tweet] {
	return newTimeline(c, "RetweetsOfMe", owner{}, ParseTweetsPage)
}

// DirectMessagesReceived is the direct messages sent to the authenticated account.
func (c *Client) DirectMessagesReceived() *paginate.Timeline[*DirectMessage] {
	return newTimeline(c, "DirectMessagesReceived", owner{}, ParseDirectMessagesPage)
}

// DirectMessagesSent is the direct messages the authenticated account sent.
func (c *Client) DirectMessagesSent() *paginate.Timeline[*DirectMessage] {
	return newTimeline(c, "DirectMessagesSent", owner{}, ParseDirectMessagesPage)
}

// GetFollowers returns up to maxCount followers of userID.
func (c *Client) GetFollowers(ctx context.Context, userID uint64, maxCount int) ([]*TwitterUser, error) {
	users, err := paginate.Collect(c.Followers(userID).All(ctx), maxCount)
	if err != nil {
		return users, fmt.Errorf("followers of %d: %w", userID, err)
	}
	return users, nil
}

// GetFollowing returns up to maxCount accounts userID follows.
func (c *Client) GetFollowing(ctx context.Context, userID uint64, maxCount int) ([]*TwitterUser, error) {
	users, err := paginate.Collect(c.Following(userID).All(ctx), maxCount)
	if err != nil {
		return users, fmt.Errorf("following of %d: %w", userID, err)
	}
	return users, nil
}

// GetUserTweets returns up to count of userID's most recent tweets, newest first.
func (c *Client) GetUserTweets(ctx context.Context, userID uint64, count int) ([]*Tweet, error) {
	tl := c.UserTimeline(userID)
	if count > 0 && count < tl.PageSize() {
		tl.SetPageSize(count)
	}
	tweets, err := paginate.Collect(tl.All(ctx), count)
	if err != nil {
		return tweets, fmt.Errorf("tweets of %d: %w", userID, err)
	}
	return tweets, nil
}
