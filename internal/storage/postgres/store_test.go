package postgres

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/eventnest/server/internal/domain/accounts"
	"github.com/eventnest/server/internal/domain/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func createAccount(t *testing.T, svc *accounts.Service, username string) *accounts.Account {
	t.Helper()
	account, err := svc.Create(context.Background(), accounts.CreateParams{
		Username: username,
		Email:    username + "@example.com",
		Password: "pw-" + username,
	})
	require.NoError(t, err)
	return account
}

func eventParams(organizerID int64) events.CreateParams {
	return events.CreateParams{
		Title:           "Gophers",
		Description:     "Talks and pizza",
		Location:        "Hall B",
		MaxParticipants: 30,
		OrganizerID:     organizerID,
	}
}

func TestStore_AccountCRUD(t *testing.T) {
	store := setupStore(t)
	svc := accounts.NewService(store, zerolog.Nop())
	ctx := context.Background()

	created := createAccount(t, svc, "alice")

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, *created, *got)

	empty := ""
	email := "alice@new.example.com"
	updated, err := svc.Update(ctx, created.ID, accounts.UpdateParams{Username: &empty, Email: &email})
	require.NoError(t, err)
	require.Equal(t, "alice", updated.Username)
	require.Equal(t, email, updated.Email)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, accounts.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID), accounts.ErrNotFound)
}

func TestStore_AccountDuplicates(t *testing.T) {
	store := setupStore(t)
	svc := accounts.NewService(store, zerolog.Nop())
	ctx := context.Background()

	createAccount(t, svc, "alice")

	_, err := svc.Create(ctx, accounts.CreateParams{Username: "alice", Email: "x@example.com", Password: "x"})
	var dup *accounts.DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "username", dup.Field)

	_, err = svc.Create(ctx, accounts.CreateParams{Username: "bob", Email: "alice@example.com", Password: "x"})
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "email", dup.Field)
	require.ErrorIs(t, err, accounts.ErrDuplicate)
}

func TestStore_ConcurrentDuplicateCreates(t *testing.T) {
	store := setupStore(t)
	svc := accounts.NewService(store, zerolog.Nop())
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, accounts.CreateParams{Username: "same", Email: "same@example.com", Password: "x"})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, accounts.ErrDuplicate)
	}
	require.Equal(t, 1, succeeded)
	require.Zero(t, store.Stats().InUse)
}

func TestStore_EventsAndDanglingOrganizer(t *testing.T) {
	store := setupStore(t)
	accountSvc := accounts.NewService(store, zerolog.Nop())
	eventSvc := events.NewService(store, zerolog.Nop())
	ctx := context.Background()

	_, err := eventSvc.Create(ctx, eventParams(424242))
	require.ErrorIs(t, err, events.ErrOrganizerNotFound)

	organizer := createAccount(t, accountSvc, "alice")
	var ids []int64
	for range 4 {
		created, err := eventSvc.Create(ctx, eventParams(organizer.ID))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	require.NoError(t, eventSvc.Delete(ctx, ids[2]))

	zero := 0
	updated, err := eventSvc.Update(ctx, ids[0], events.UpdateParams{MaxParticipants: &zero})
	require.NoError(t, err)
	require.Equal(t, 30, updated.MaxParticipants)

	require.NoError(t, accountSvc.Delete(ctx, organizer.ID))

	items, err := eventSvc.List(ctx)
	require.NoError(t, err)

	var got []int64
	for _, item := range items {
		require.Equal(t, organizer.ID, item.OrganizerID)
		got = append(got, item.ID)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Equal(t, []int64{ids[0], ids[1], ids[3]}, got)
}

func TestStore_MigrationState(t *testing.T) {
	store := setupStore(t)

	state, err := store.MigrationState(context.Background())
	require.NoError(t, err)
	require.True(t, state.Applied)
	require.Equal(t, uint(1), state.Version)
	require.False(t, state.Dirty)
}
