package store

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/capitalize-ai/marketplace-messaging/internal/errors"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMessage(sender, recipient string, at time.Time) *model.Message {
	return &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: model.ConversationID(sender, recipient),
		SenderID:       sender,
		RecipientID:    recipient,
		Text:           "hi",
		CreatedAt:      at,
	}
}

func TestMessageStore_Create_Get_Delete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageStore(openDB(t))
	msg := newMessage("U1", "U2", time.Now().UTC())

	req.NoError(repository.Create(ctx, msg))

	fetched, err := repository.Get(ctx, msg.ID)
	req.NoError(err)
	req.Equal(msg.ID, fetched.ID)
	req.Equal("U1_U2", fetched.ConversationID)
	req.False(fetched.IsRead)

	req.NoError(repository.Delete(ctx, msg.ID))

	_, err = repository.Get(ctx, msg.ID)
	req.ErrorIs(err, apperrors.ErrNotFound)

	// Deleting twice is a not-found, not a silent success
	req.ErrorIs(repository.Delete(ctx, msg.ID), apperrors.ErrNotFound)

	// And the index entry is gone too
	messages, _, _, err := repository.ListConversation(ctx, "U1_U2", "", 10)
	req.NoError(err)
	req.Empty(messages)
}

func TestMessageStore_MarkRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageStore(openDB(t))
	msg := newMessage("U1", "U2", time.Now().UTC())
	req.NoError(repository.Create(ctx, msg))

	at := time.Now().UTC()
	req.NoError(repository.MarkRead(ctx, msg.ID, at))

	fetched, err := repository.Get(ctx, msg.ID)
	req.NoError(err)
	req.True(fetched.IsRead)
	req.NotNil(fetched.ReadAt)
	req.True(at.Equal(*fetched.ReadAt))

	req.ErrorIs(repository.MarkRead(ctx, "missing", at), apperrors.ErrNotFound)
}

func TestMessageStore_MarkConversationRead_Only_Flips_Reader_Unread(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageStore(openDB(t))
	now := time.Now().UTC()

	// Given two messages to U2, one message from U2, and one in another conversation
	toU2a := newMessage("U1", "U2", now)
	toU2b := newMessage("U1", "U2", now.Add(time.Second))
	fromU2 := newMessage("U2", "U1", now.Add(2*time.Second))
	elsewhere := newMessage("U3", "U2", now.Add(3*time.Second))
	for _, m := range []*model.Message{toU2a, toU2b, fromU2, elsewhere} {
		req.NoError(repository.Create(ctx, m))
	}

	// When U2 reads U1_U2
	changed, err := repository.MarkConversationRead(ctx, "U1_U2", "U2", now)

	// Then only the two messages addressed to U2 in that conversation flip
	req.NoError(err)
	req.Equal([]string{toU2a.ID, toU2b.ID}, changed)

	untouched, err := repository.Get(ctx, fromU2.ID)
	req.NoError(err)
	req.False(untouched.IsRead)
	untouched, err = repository.Get(ctx, elsewhere.ID)
	req.NoError(err)
	req.False(untouched.IsRead)

	// And a second call changes nothing
	changed, err = repository.MarkConversationRead(ctx, "U1_U2", "U2", now)
	req.NoError(err)
	req.Empty(changed)
}

func TestMessageStore_ListConversation_Paginates_Oldest_First(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageStore(openDB(t))
	now := time.Now().UTC()

	var ids []string
	for i := 0; i < 5; i++ {
		m := newMessage("U1", "U2", now.Add(time.Duration(i)*time.Minute))
		req.NoError(repository.Create(ctx, m))
		ids = append(ids, m.ID)
	}

	page, cursor, hasMore, err := repository.ListConversation(ctx, "U1_U2", "", 2)
	req.NoError(err)
	req.True(hasMore)
	req.Equal(ids[0:2], messageIDs(page))

	page, cursor, hasMore, err = repository.ListConversation(ctx, "U1_U2", cursor, 2)
	req.NoError(err)
	req.True(hasMore)
	req.Equal(ids[2:4], messageIDs(page))

	page, _, hasMore, err = repository.ListConversation(ctx, "U1_U2", cursor, 2)
	req.NoError(err)
	req.False(hasMore)
	req.Equal(ids[4:], messageIDs(page))
}

func messageIDs(messages []model.Message) []string {
	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	return ids
}

func TestMessageStore_Update_Replays_Lost_Conflict(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageStore(openDB(t))
	m := newMessage("U1", "U2", time.Now().UTC())
	req.NoError(repository.Create(ctx, m))

	attempts := 0
	err := repository.update(ctx, func(txn *badger.Txn) error {
		attempts++
		msg, err := getMessage(txn, m.ID)
		if err != nil {
			return err
		}
		if attempts == 1 {
			// Another writer commits the same key after our read.
			rival := *msg
			rival.Text = "edited"
			if err := repository.db.Update(func(other *badger.Txn) error {
				return putMessage(other, &rival)
			}); err != nil {
				return err
			}
		}
		msg.IsRead = true
		return putMessage(txn, msg)
	})

	req.NoError(err)
	req.Equal(2, attempts)
	stored, err := repository.Get(ctx, m.ID)
	req.NoError(err)
	req.True(stored.IsRead)
	req.Equal("edited", stored.Text)
}

func TestMessageStore_Update_Does_Not_Replay_Other_Errors(t *testing.T) {
	req := require.New(t)
	repository := NewMessageStore(openDB(t))

	attempts := 0
	err := repository.update(context.Background(), func(txn *badger.Txn) error {
		attempts++
		_, err := getMessage(txn, "missing")
		return err
	})

	req.ErrorIs(err, apperrors.ErrNotFound)
	req.Equal(1, attempts)
}

func TestMessageStore_MarkConversationRead_Concurrent_Readers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageStore(openDB(t))
	now := time.Now().UTC()
	for i := 0; i < 20; i++ {
		req.NoError(repository.Create(ctx, newMessage("U1", "U2", now.Add(time.Duration(i)*time.Millisecond))))
	}

	// Two tabs mark the same conversation read at once; both succeed and
	// every message is flipped exactly once.
	results := make(chan []string, 2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			changed, err := repository.MarkConversationRead(ctx, "U1_U2", "U2", now)
			errs <- err
			results <- changed
		}()
	}

	total := 0
	for i := 0; i < 2; i++ {
		req.NoError(<-errs)
		total += len(<-results)
	}
	req.Equal(20, total)
}
