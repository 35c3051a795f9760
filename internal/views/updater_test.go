package views_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/event"
	viewsmocks "github.com/fireteam-lab/fireteam/internal/mocks/views"
	"github.com/fireteam-lab/fireteam/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEvent(seq uint8, minutes int) *event.Event {
	at := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return event.New(event.NewID(activity.Custom, seq), event.Member{ID: "1", Name: "c"}, at, "")
}

func TestUpdater_ApplyMirrorsOps(t *testing.T) {
	ctx := context.Background()
	sink := views.NewMemorySink()
	u := views.NewUpdater(sink)
	s := views.NewSynchronizer(nil, nil)

	e1, e2 := newEvent(1, 10), newEvent(2, 20)
	for _, change := range []*event.Change{event.NewAdded(e2), event.NewAdded(e1)} {
		for _, op := range s.Apply(change) {
			require.NoError(t, u.Apply(ctx, op))
		}
	}

	assert.Equal(t, []views.RenderedView{views.Render(e1), views.Render(e2)}, sink.Views())
	assert.Len(t, u.Handles(), 2)

	for _, op := range s.Apply(event.NewDeleted(e1)) {
		require.NoError(t, u.Apply(ctx, op))
	}
	assert.Equal(t, []views.RenderedView{views.Render(e2)}, sink.Views())
}

func TestUpdater_SkipsUnchangedUpdates(t *testing.T) {
	ctx := context.Background()
	sink := views.NewMemorySink()
	u := views.NewUpdater(sink)

	e := newEvent(1, 10)
	require.NoError(t, u.Apply(ctx, views.InsertAtEnd(e)))
	calls := sink.Calls()

	require.NoError(t, u.Apply(ctx, views.UpdateAt(e.Clone(), 0)))
	assert.Equal(t, calls, sink.Calls())

	changed := e.Clone()
	changed.Description = "new"
	require.NoError(t, u.Apply(ctx, views.UpdateAt(changed, 0)))
	assert.Equal(t, calls+1, sink.Calls())
}

func TestUpdater_DesyncedIndex(t *testing.T) {
	u := views.NewUpdater(views.NewMemorySink())
	require.ErrorIs(t, u.Apply(context.Background(), views.UpdateAt(newEvent(1, 1), 3)), views.ErrDesync)
	require.ErrorIs(t, u.Apply(context.Background(), views.DeleteAt(0)), views.ErrDesync)
}

func TestUpdater_ResetAdoptsExistingMessages(t *testing.T) {
	sink := viewsmocks.NewMessageSink(t)
	e1, e2 := newEvent(1, 10), newEvent(2, 20)
	s := views.NewSynchronizer(nil, []*event.Event{e1, e2})

	sink.EXPECT().ListExisting(mock.Anything).Return([]views.Handle{"m1", "m2", "m3"}, nil).Once()
	sink.EXPECT().Update(mock.Anything, views.Handle("m1"), views.Render(e1)).Return(nil).Once()
	sink.EXPECT().Update(mock.Anything, views.Handle("m2"), views.Render(e2)).Return(nil).Once()
	sink.EXPECT().Delete(mock.Anything, views.Handle("m3")).Return(nil).Once()

	u := views.NewUpdater(sink)
	require.NoError(t, u.Reset(context.Background(), s))
	assert.Equal(t, []views.Handle{"m1", "m2"}, u.Handles())
}

func TestUpdater_ResetListError(t *testing.T) {
	sink := viewsmocks.NewMessageSink(t)
	sink.EXPECT().ListExisting(mock.Anything).Return(nil, errors.New("forbidden")).Once()

	u := views.NewUpdater(sink)
	err := u.Reset(context.Background(), views.NewSynchronizer(nil, nil))
	require.ErrorContains(t, err, "forbidden")
}

func TestUpdater_CreateFailureLeavesMappingUntouched(t *testing.T) {
	sink := viewsmocks.NewMessageSink(t)
	sink.EXPECT().Create(mock.Anything, mock.Anything).Return(views.Handle(""), errors.New("rate limited")).Once()

	u := views.NewUpdater(sink)
	err := u.Apply(context.Background(), views.InsertAtEnd(newEvent(1, 1)))
	require.ErrorContains(t, err, "rate limited")
	assert.Empty(t, u.Handles())
}
