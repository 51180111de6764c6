package twitter

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/anatolykoptev/go-twitter-paging/paginate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dmPage(dms ...*DirectMessage) *paginate.Page[*DirectMessage] {
	page := &paginate.Page[*DirectMessage]{Items: dms}
	for _, dm := range dms {
		id, _ := strconv.ParseUint(dm.ID, 10, 64)
		widen(&page.MinID, &page.MaxID, id)
	}
	return page
}

func dm(id, from, to string) *DirectMessage {
	return &DirectMessage{ID: id, SenderID: from, RecipientID: to, Text: "msg " + id}
}

func staticTimeline(name string, page *paginate.Page[*DirectMessage], err error) *paginate.Timeline[*DirectMessage] {
	f := paginate.FetcherFunc[*DirectMessage](func(context.Context, paginate.FetchRequest) (*paginate.Page[*DirectMessage], error) {
		return page, err
	})
	return paginate.NewTimeline[*DirectMessage](f, name, 20, paginate.WithPolicy(paginate.NoRetry))
}

func TestConversationMergesThreads(t *testing.T) {
	received := staticTimeline("received", dmPage(dm("12", "alice", "me"), dm("10", "bob", "me")), nil)
	sent := staticTimeline("sent", dmPage(dm("11", "me", "alice")), nil)
	cv := NewConversation(received, sent)
	ctx := context.Background()

	added, err := cv.Newest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, []string{"alice", "bob"}, cv.Peers())

	thread := cv.Thread("alice")
	require.Len(t, thread, 2)
	assert.Equal(t, "12", thread[0].ID)
	assert.Equal(t, "11", thread[1].ID)
	assert.Empty(t, cv.Thread("carol"))

	added, err = cv.Newest(ctx)
	require.NoError(t, err)
	assert.Zero(t, added, "messages already merged are not added twice")
}

func TestConversationOlderExhausts(t *testing.T) {
	received := staticTimeline("received", dmPage(dm("5", "alice", "me")), nil)
	sent := staticTimeline("sent", dmPage(), nil)
	cv := NewConversation(received, sent)

	added, err := cv.Older(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.True(t, cv.Exhausted(), "short pages exhaust both timelines")
}

func TestConversationPartialFailure(t *testing.T) {
	var sentCalls atomic.Int32
	received := staticTimeline("received", dmPage(dm("20", "bob", "me")), nil)
	sentFetcher := paginate.FetcherFunc[*DirectMessage](func(context.Context, paginate.FetchRequest) (*paginate.Page[*DirectMessage], error) {
		sentCalls.Add(1)
		return nil, paginate.Terminal(paginate.ReasonUnauthorized, assert.AnError)
	})
	sent := paginate.NewTimeline[*DirectMessage](sentFetcher, "sent", 20, paginate.WithPolicy(paginate.NoRetry))
	cv := NewConversation(received, sent)

	added, err := cv.Newest(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, added, "the side that succeeded is merged")
	assert.Equal(t, []string{"bob"}, cv.Peers())
	assert.Equal(t, int32(1), sentCalls.Load())
	assert.False(t, sent.Window().Defined())
}

func TestConversationBothSidesFail(t *testing.T) {
	recvErr := paginate.Terminal(paginate.ReasonNotFound, testErr("received gone"))
	sentErr := paginate.Terminal(paginate.ReasonUnauthorized, testErr("sent denied"))
	cv := NewConversation(
		staticTimeline("received", nil, recvErr),
		staticTimeline("sent", nil, sentErr),
	)

	added, err := cv.Newest(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, recvErr)
	assert.ErrorIs(t, err, sentErr)
	assert.Zero(t, added)
	assert.Empty(t, cv.Peers())
}

func TestCompareIDs(t *testing.T) {
	assert.Negative(t, compareIDs("9", "10"))
	assert.Positive(t, compareIDs("240136858829479936", "240136858829479935"))
	assert.Zero(t, compareIDs("7", "7"))
	assert.Negative(t, compareIDs("x", "1"))
}
