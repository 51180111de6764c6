package twitter

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"github.com/anatolykoptev/go-twitter-paging/paginate"
	"golang.org/x/sync/errgroup"
)

// Conversation merges the received and sent direct message timelines into
// one thread per peer account.
type Conversation struct {
	Received *paginate.Timeline[*DirectMessage]
	Sent     *paginate.Timeline[*DirectMessage]

	mu      sync.Mutex
	seen    map[string]bool
	threads map[string][]*DirectMessage
}

// Conversations returns a conversation view over the authenticated account's
// direct messages.
func (c *Client) Conversations() *Conversation {
	return NewConversation(c.DirectMessagesReceived(), c.DirectMessagesSent())
}

// NewConversation builds a conversation view over two DM timelines.
func NewConversation(received, sent *paginate.Timeline[*DirectMessage]) *Conversation {
	return &Conversation{
		Received: received,
		Sent:     sent,
		seen:     make(map[string]bool),
		threads:  make(map[string][]*DirectMessage),
	}
}

// Newest polls both timelines for new messages concurrently and merges
// what arrived. It returns the number of messages added.
func (cv *Conversation) Newest(ctx context.Context) (int, error) {
	return cv.both(ctx, (*paginate.Timeline[*DirectMessage]).PollNewest)
}

// Older pages both timelines back concurrently and merges the older
// messages. An exhausted timeline contributes nothing.
func (cv *Conversation) Older(ctx context.Context) (int, error) {
	return cv.both(ctx, (*paginate.Timeline[*DirectMessage]).PageBackward)
}

// Exhausted reports whether both timelines have reached their start.
func (cv *Conversation) Exhausted() bool {
	return cv.Received.State() == paginate.Exhausted && cv.Sent.State() == paginate.Exhausted
}

type timelineOp func(*paginate.Timeline[*DirectMessage], context.Context) (*paginate.Page[*DirectMessage], error)

// both runs op on the two timelines. A failure on one side does not cancel
// the other; pages that succeed are merged.
func (cv *Conversation) both(ctx context.Context, op timelineOp) (int, error) {
	var received, sent *paginate.Page[*DirectMessage]
	var recvErr, sentErr error

	// Each side keeps its own error; the group only joins the goroutines.
	var g errgroup.Group
	g.Go(func() error {
		received, recvErr = op(cv.Received, ctx)
		return nil
	})
	g.Go(func() error {
		sent, sentErr = op(cv.Sent, ctx)
		return nil
	})
	g.Wait()

	added := 0
	if recvErr == nil {
		added += cv.merge(received, func(dm *DirectMessage) string { return dm.SenderID })
	}
	if sentErr == nil {
		added += cv.merge(sent, func(dm *DirectMessage) string { return dm.RecipientID })
	}
	return added, errors.Join(recvErr, sentErr)
}

func (cv *Conversation) merge(page *paginate.Page[*DirectMessage], peerOf func(*DirectMessage) string) int {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	added := 0
	for _, dm := range page.Items {
		if cv.seen[dm.ID] {
			continue
		}
		cv.seen[dm.ID] = true
		peer := peerOf(dm)
		cv.threads[peer] = append(cv.threads[peer], dm)
		added++
	}
	return added
}

// Peers returns the IDs of every account with at least one message.
func (cv *Conversation) Peers() []string {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	peers := make([]string, 0, len(cv.threads))
	for p := range cv.threads {
		peers = append(peers, p)
	}
	slices.Sort(peers)
	return peers
}

// Thread returns the messages exchanged with peer, newest first.
func (cv *Conversation) Thread(peer string) []*DirectMessage {
	cv.mu.Lock()
	thread := slices.Clone(cv.threads[peer])
	cv.mu.Unlock()
	slices.SortFunc(thread, func(a, b *DirectMessage) int {
		return compareIDs(b.ID, a.ID)
	})
	return thread
}

// compareIDs orders numeric string IDs; unparsable IDs sort first.
func compareIDs(a, b string) int {
	x, _ := strconv.ParseUint(a, 10, 64)
	y, _ := strconv.ParseUint(b, 10, 64)
	return cmp.Compare(x, y)
}
