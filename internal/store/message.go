// Package store persists messages and accounts in BadgerDB.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/capitalize-ai/marketplace-messaging/internal/errors"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

// maxConflictAttempts bounds how often a read-modify-write transaction is
// replayed after losing to a concurrent writer.
const maxConflictAttempts = 5

// MessageStore keeps messages under "msg:{id}" and a per-conversation index
// under "conv:{conversation}:{created_at_padded}:{id}". The 19-digit padding
// keeps the index in chronological order under lexicographic iteration.
type MessageStore struct {
	db *badger.DB
}

// NewMessageStore creates a message store on an open database.
func NewMessageStore(db *badger.DB) *MessageStore {
	return &MessageStore{db: db}
}

func messageKey(id string) []byte {
	return []byte("msg:" + id)
}

func conversationPrefix(conversationID string) string {
	return "conv:" + conversationID + ":"
}

func indexSuffix(msg *model.Message) string {
	return fmt.Sprintf("%019d:%s", msg.CreatedAt.UnixNano(), msg.ID)
}

func indexKey(msg *model.Message) []byte {
	return []byte(conversationPrefix(msg.ConversationID) + indexSuffix(msg))
}

// Create persists a new message and its index entry atomically.
func (s *MessageStore) Create(ctx context.Context, msg *model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(msg.ID), data); err != nil {
			return err
		}
		return txn.Set(indexKey(msg), []byte(msg.ID))
	})
}

// Get loads a message by id.
func (s *MessageStore) Get(ctx context.Context, id string) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var msg *model.Message
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		msg, err = getMessage(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkRead flips one message to read.
func (s *MessageStore) MarkRead(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		msg, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if msg.IsRead {
			return nil
		}
		msg.IsRead = true
		msg.ReadAt = &at
		return putMessage(txn, msg)
	})
}

// MarkConversationRead flips every unread message of conversationID addressed
// to readerID and returns the ids it changed, oldest first.
func (s *MessageStore) MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var changed []string
	err := s.update(ctx, func(txn *badger.Txn) error {
		changed = nil
		prefix := []byte(conversationPrefix(conversationID))
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			ids = append(ids, string(value))
		}

		for _, id := range ids {
			msg, err := getMessage(txn, id)
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if msg.RecipientID != readerID || msg.IsRead {
				continue
			}
			msg.IsRead = true
			msg.ReadAt = &at
			if err := putMessage(txn, msg); err != nil {
				return err
			}
			changed = append(changed, msg.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// Delete hard-deletes a message and its index entry.
func (s *MessageStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		msg, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(indexKey(msg)); err != nil {
			return err
		}
		return txn.Delete(messageKey(id))
	})
}

// ListConversation returns up to limit messages of conversationID, oldest
// first, strictly after cursor. The returned cursor resumes the listing.
func (s *MessageStore) ListConversation(ctx context.Context, conversationID, cursor string, limit int) ([]model.Message, string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", false, err
	}
	prefixStr := conversationPrefix(conversationID)
	prefix := []byte(prefixStr)

	var (
		messages []model.Message
		next     string
		hasMore  bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seek := prefix
		if cursor != "" {
			seek = []byte(prefixStr + cursor)
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			suffix := strings.TrimPrefix(string(it.Item().Key()), prefixStr)
			if cursor != "" && suffix <= cursor {
				continue
			}
			if len(messages) == limit {
				hasMore = true
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			msg, err := getMessage(txn, string(value))
			if err != nil {
				return err
			}
			messages = append(messages, *msg)
			next = suffix
		}
		return nil
	})
	if err != nil {
		return nil, "", false, err
	}
	return messages, next, hasMore, nil
}

// update runs fn in a read-write transaction and replays it when the commit
// loses a conflict on a key it read. Any other error is returned as is.
func (s *MessageStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.db.Update(fn)
		if err != nil && !errors.Is(err, badger.ErrConflict) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(conflictBackOff()), backoff.WithMaxTries(maxConflictAttempts))
	return err
}

func conflictBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	return b
}

func getMessage(txn *badger.Txn, id string) (*model.Message, error) {
	item, err := txn.Get(messageKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("message %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var msg model.Message
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", id, err)
	}
	return &msg, nil
}

func putMessage(txn *badger.Txn, msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return txn.Set(messageKey(msg.ID), data)
}
