package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/capitalize-ai/marketplace-messaging/internal/errors"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

func TestAccountStore_Save_Get(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	accounts := NewAccountStore(openDB(t))

	_, err := accounts.Get(ctx, "U1")
	req.ErrorIs(err, apperrors.ErrNotFound)

	req.NoError(accounts.Save(ctx, &model.Account{ID: "U1", CreatedAt: time.Now().UTC()}))
	req.NoError(accounts.Save(ctx, &model.Account{ID: "U2", Suspended: true}))

	account, err := accounts.Get(ctx, "U1")
	req.NoError(err)
	req.Equal("U1", account.ID)
	req.False(account.Suspended)

	account, err = accounts.Get(ctx, "U2")
	req.NoError(err)
	req.True(account.Suspended)
}

func TestOpenInMemory(t *testing.T) {
	req := require.New(t)
	db, err := OpenInMemory()
	req.NoError(err)
	defer db.Close()

	accounts := NewAccountStore(db)
	req.NoError(accounts.Save(context.Background(), &model.Account{ID: "U1"}))
	_, err = accounts.Get(context.Background(), "U1")
	req.NoError(err)
}
