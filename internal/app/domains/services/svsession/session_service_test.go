package svsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfilment/internal/app/domains/modules/mdsession"
	"fulfilment/internal/app/infra/intent"
	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/logger"
)

type fakeRemote struct {
	deleted []string
	err     error
}

func (f *fakeRemote) DeleteSession(ctx context.Context, id string) (*intent.SessionAck, error) {
	f.deleted = append(f.deleted, id)
	if f.err != nil {
		return nil, f.err
	}
	return &intent.SessionAck{Message: "deleted"}, nil
}

func TestSessionService_Delete(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	store := mdsession.NewMemoryStore(mdsession.Config{DeleteGrace: 2 * time.Minute}, func() time.Time { return now })
	remote := &fakeRemote{err: errors.New("intent service down")}
	svc := NewSessionService(store, remote, logger.NewNop())
	ctx := context.Background()

	_, err := store.Touch(ctx, "s1", map[string]interface{}{"order_number": "ORD-1"})
	require.NoError(t, err)

	ack, err := svc.Delete(ctx, "s1")
	require.NoError(t, err, "remote failure does not fail the delete")
	assert.Equal(t, "Session will expire in 2m0s", ack.Message)
	assert.Equal(t, []string{"s1"}, remote.deleted)

	s, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, s.Closing)
	assert.Equal(t, "ORD-1", s.OrderNumber)
}

func TestSessionService_Unknown(t *testing.T) {
	svc := NewSessionService(mdsession.NewMemoryStore(mdsession.Config{}, nil), nil, logger.NewNop())

	_, err := svc.Get(context.Background(), "nope")
	assert.Equal(t, errorx.KindNotFound, errorx.KindOf(err))

	_, err = svc.Delete(context.Background(), "nope")
	assert.Equal(t, errorx.KindNotFound, errorx.KindOf(err))
}
