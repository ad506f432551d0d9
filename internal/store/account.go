package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/capitalize-ai/marketplace-messaging/internal/errors"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

// AccountStore resolves account existence and suspension from "account:{id}".
type AccountStore struct {
	db *badger.DB
}

// NewAccountStore creates an account store on an open database.
func NewAccountStore(db *badger.DB) *AccountStore {
	return &AccountStore{db: db}
}

func accountKey(id string) []byte {
	return []byte("account:" + id)
}

// Get loads an account by id.
func (s *AccountStore) Get(ctx context.Context, id string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var account model.Account
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("account %s: %w", id, apperrors.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Save creates or replaces an account.
func (s *AccountStore) Save(ctx context.Context, account *model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(accountKey(account.ID), data)
	})
}
