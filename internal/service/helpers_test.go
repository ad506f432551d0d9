package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/capitalize-ai/marketplace-messaging/internal/mocks"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
	"github.com/capitalize-ai/marketplace-messaging/internal/realtime"
	"github.com/capitalize-ai/marketplace-messaging/internal/store"
	"github.com/capitalize-ai/marketplace-messaging/pkg/logger"
)

type fixture struct {
	hub      *realtime.Hub
	messages *store.MessageStore
	accounts *store.AccountStore
	notifier *mocks.MockNotifier
	svc      *MessageService
}

// newFixture wires the service to a real Badger store, a real hub and a
// mocked notifier. Accounts U1, U2 and U3 exist; S1 is suspended.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	accounts := store.NewAccountStore(db)
	for _, id := range []string{"U1", "U2", "U3"} {
		require.NoError(t, accounts.Save(context.Background(), &model.Account{ID: id}))
	}
	require.NoError(t, accounts.Save(context.Background(), &model.Account{ID: "S1", Suspended: true}))

	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	messages := store.NewMessageStore(db)
	hub := realtime.NewHub(logger.NewNop())
	svc := NewMessageService(messages, accounts, notifier, hub, time.Second, logger.NewNop())
	// Runs before the mock controller's own cleanup, so queued
	// notifications are delivered before expectations are checked.
	t.Cleanup(svc.Close)

	return &fixture{
		hub:      hub,
		messages: messages,
		accounts: accounts,
		notifier: notifier,
		svc:      svc,
	}
}

// connect opens a live connection for identity and discards the presence
// broadcasts its arrival produced everywhere.
func (f *fixture) connect(t *testing.T, identity string) *realtime.Conn {
	t.Helper()
	c := realtime.NewConn(identity, 64, logger.NewNop())
	f.hub.Connect(c)
	return c
}

type received struct {
	Type model.EventType `json:"type"`
	Data json.RawMessage `json:"data"`
}

// drain returns every event queued on c without blocking.
func drain(t *testing.T, c *realtime.Conn) []received {
	t.Helper()
	var events []received
	for {
		select {
		case payload, ok := <-c.Outbound():
			if !ok {
				return events
			}
			var evt received
			require.NoError(t, json.Unmarshal(payload, &evt))
			events = append(events, evt)
		default:
			return events
		}
	}
}

// only drains c and keeps the events of the given type.
func only(t *testing.T, c *realtime.Conn, eventType model.EventType) []received {
	t.Helper()
	var out []received
	for _, evt := range drain(t, c) {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func decodeData[T any](t *testing.T, evt received) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(evt.Data, &v))
	return v
}

func text(s string) *model.SendMessageRequest {
	return &model.SendMessageRequest{Text: s}
}

func to(recipient string, req *model.SendMessageRequest) *model.SendMessageRequest {
	req.RecipientID = recipient
	return req
}
