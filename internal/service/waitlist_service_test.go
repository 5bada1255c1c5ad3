package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkline/table-reservation/internal/model"
)

func TestEnqueueAssignsSequentialPositions(t *testing.T) {
	_, svc, bookings, _, _, _ := testEnv()

	for i := 0; i < 3; i++ {
		b := &model.Booking{RestaurantID: 1, CustomerID: uint64(i + 1), Status: model.BookingPending, PartySize: 2}
		bookings.seed(b)
		e, err := svc.Enqueue(context.Background(), 1, b.CustomerID, 2, b.ID)
		require.NoError(t, err)
		assert.Equal(t, uint32(i+1), e.Position)
		assert.Equal(t, model.WaitlistWaiting, e.Status)
	}
}

func TestEnqueueConcurrentPositionsArePermutation(t *testing.T) {
	_, svc, bookings, _, _, _ := testEnv()

	const n = 32
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		b := &model.Booking{RestaurantID: 1, CustomerID: uint64(i + 1), Status: model.BookingPending, PartySize: 2}
		bookings.seed(b)
		ids[i] = b.ID
	}

	positions := make([]uint32, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := svc.Enqueue(context.Background(), 1, uint64(i+1), 2, ids[i])
			if err == nil {
				positions[i] = e.Position
			}
		}(i)
	}
	wg.Wait()

	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	for i := 0; i < n; i++ {
		assert.Equal(t, uint32(i+1), positions[i])
	}
}

func TestEnqueueConcurrentDuplicateJoinsAdmitOne(t *testing.T) {
	_, svc, bookings, _, _, _ := testEnv()

	b := &model.Booking{RestaurantID: 1, CustomerID: 1, Status: model.BookingPending, PartySize: 2}
	bookings.seed(b)

	const n = 8
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Enqueue(context.Background(), 1, 1, 2, b.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var admitted, rejected int
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrAlreadyQueued):
			rejected++
		default:
			t.Fatalf("unexpected enqueue error: %v", err)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, n-1, rejected)
}

func TestPromoteNextSkipsPartiesTooLarge(t *testing.T) {
	_, svc, bookings, _, tables, _ := testEnv()
	tables.add(&model.Table{ID: 10, RestaurantID: 1, Capacity: 2, Status: model.TableAvailable})

	big := &model.Booking{RestaurantID: 1, CustomerID: 1, Status: model.BookingPending, PartySize: 6}
	small := &model.Booking{RestaurantID: 1, CustomerID: 2, Status: model.BookingPending, PartySize: 2}
	bookings.seed(big)
	bookings.seed(small)

	bigEntry, err := svc.Enqueue(context.Background(), 1, 1, 6, big.ID)
	require.NoError(t, err)
	smallEntry, err := svc.Enqueue(context.Background(), 1, 2, 2, small.ID)
	require.NoError(t, err)

	promoted, err := svc.PromoteNext(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, smallEntry.ID, promoted.ID)

	// The larger party keeps waiting at its original position.
	still, err := svc.GetEntry(context.Background(), bigEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistWaiting, still.Status)
	assert.Equal(t, uint32(1), still.Position)
}

func TestPromoteNextNoopWhenTableNotAvailable(t *testing.T) {
	_, svc, bookings, _, tables, _ := testEnv()
	tables.add(&model.Table{ID: 10, RestaurantID: 1, Capacity: 4, Status: model.TableOccupied})

	b := &model.Booking{RestaurantID: 1, CustomerID: 1, Status: model.BookingPending, PartySize: 2}
	bookings.seed(b)
	_, err := svc.Enqueue(context.Background(), 1, 1, 2, b.ID)
	require.NoError(t, err)

	promoted, err := svc.PromoteNext(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Nil(t, promoted)
}

func TestPromoteNextDiscardsDeadBookingAndContinues(t *testing.T) {
	_, svc, bookings, entries, tables, _ := testEnv()
	tables.add(&model.Table{ID: 10, RestaurantID: 1, Capacity: 4, Status: model.TableAvailable})

	dead := &model.Booking{RestaurantID: 1, CustomerID: 1, Status: model.BookingPending, PartySize: 2}
	live := &model.Booking{RestaurantID: 1, CustomerID: 2, Status: model.BookingPending, PartySize: 2}
	bookings.seed(dead)
	bookings.seed(live)

	deadEntry, err := svc.Enqueue(context.Background(), 1, 1, 2, dead.ID)
	require.NoError(t, err)
	liveEntry, err := svc.Enqueue(context.Background(), 1, 2, 2, live.ID)
	require.NoError(t, err)

	// The first party's booking was cancelled while it waited.
	require.NoError(t, bookings.TransitionStatus(context.Background(), dead.ID, model.BookingPending, model.BookingCancelled, nil))

	promoted, err := svc.PromoteNext(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, liveEntry.ID, promoted.ID)

	discarded, err := entries.GetByID(context.Background(), deadEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistCancelled, discarded.Status)
}

func TestPromoteNextRequeuesWhenTableIsLost(t *testing.T) {
	_, svc, bookings, entries, tables, _ := testEnv()
	tables.add(&model.Table{ID: 10, RestaurantID: 1, Capacity: 4, Status: model.TableAvailable})

	b := &model.Booking{RestaurantID: 1, CustomerID: 1, Status: model.BookingPending, PartySize: 2}
	bookings.seed(b)
	entry, err := svc.Enqueue(context.Background(), 1, 1, 2, b.ID)
	require.NoError(t, err)

	// The table is grabbed between the availability read and the
	// booking confirmation.
	svcRacy := NewWaitlistService(entries, raceToTable{inner: bookings, tables: tables}, tables, nil)

	promoted, err := svcRacy.PromoteNext(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Nil(t, promoted)

	back, err := entries.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistWaiting, back.Status)
	assert.Equal(t, entry.Position, back.Position)
}

func TestPromoteNextRequeuesOnConfirmationFailure(t *testing.T) {
	_, svc, bookings, entries, tables, _ := testEnv()
	tables.add(&model.Table{ID: 10, RestaurantID: 1, Capacity: 4, Status: model.TableAvailable})

	b := &model.Booking{RestaurantID: 1, CustomerID: 1, Status: model.BookingPending, PartySize: 2}
	bookings.seed(b)
	entry, err := svc.Enqueue(context.Background(), 1, 1, 2, b.ID)
	require.NoError(t, err)

	// The booking store fails mid-confirmation for an unrelated reason;
	// the claimed entry must not be left stuck in promoted.
	svcBroken := NewWaitlistService(entries, brokenConfirm{}, tables, nil)

	promoted, err := svcBroken.PromoteNext(context.Background(), 1, 10)
	assert.Nil(t, promoted)
	require.Error(t, err)

	back, err := entries.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistWaiting, back.Status)
	assert.Equal(t, entry.Position, back.Position)

	got, err := bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status)
}

// brokenConfirm fails every confirmation without a recognized cause.
type brokenConfirm struct{}

func (brokenConfirm) ConfirmOntoTable(context.Context, uint64, uint64) error {
	return errors.New("store timeout")
}

// raceToTable flips the table away right before the confirmation, so
// ConfirmOntoTable observes it as taken.
type raceToTable struct {
	inner  PromotableBookings
	tables *fakeTables
}

func (r raceToTable) ConfirmOntoTable(ctx context.Context, bookingID, tableID uint64) error {
	r.tables.mu.Lock()
	r.tables.m[tableID].Status = model.TableReserved
	r.tables.mu.Unlock()
	return r.inner.ConfirmOntoTable(ctx, bookingID, tableID)
}

func TestCancelKeepsLaterPositions(t *testing.T) {
	_, svc, bookings, _, _, _ := testEnv()

	var entryIDs []uint64
	for i := 0; i < 3; i++ {
		b := &model.Booking{RestaurantID: 1, CustomerID: uint64(i + 1), Status: model.BookingPending, PartySize: 2}
		bookings.seed(b)
		e, err := svc.Enqueue(context.Background(), 1, b.CustomerID, 2, b.ID)
		require.NoError(t, err)
		entryIDs = append(entryIDs, e.ID)
	}

	require.NoError(t, svc.Cancel(context.Background(), entryIDs[0]))

	second, err := svc.GetEntry(context.Background(), entryIDs[1])
	require.NoError(t, err)
	assert.Equal(t, uint32(2), second.Position)
	third, err := svc.GetEntry(context.Background(), entryIDs[2])
	require.NoError(t, err)
	assert.Equal(t, uint32(3), third.Position)
}

func TestCancelOnlyHitsWaitingEntries(t *testing.T) {
	_, svc, bookings, _, tables, _ := testEnv()
	tables.add(&model.Table{ID: 10, RestaurantID: 1, Capacity: 4, Status: model.TableAvailable})

	b := &model.Booking{RestaurantID: 1, CustomerID: 1, Status: model.BookingPending, PartySize: 2}
	bookings.seed(b)
	entry, err := svc.Enqueue(context.Background(), 1, 1, 2, b.ID)
	require.NoError(t, err)

	promoted, err := svc.PromoteNext(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, promoted)

	err = svc.Cancel(context.Background(), entry.ID)
	assert.Error(t, err)
}
