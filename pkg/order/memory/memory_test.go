package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderservice/pkg/order"
)

// fakeClock advances by step on every reading.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func widgetOrder(userID int) order.NewOrder {
	return order.NewOrder{
		UserID:      userID,
		Items:       []order.Item{{ProductID: "P1", ProductName: "Widget", Quantity: 2, Price: 10.0}},
		TotalAmount: 20.0,
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()

	created, err := repo.Create(ctx, widgetOrder(1))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Nil(t, created.ShippingAddress)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	status := order.StatusConfirmed
	updated, err := repo.Update(ctx, created.ID, order.Patch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, updated.Status)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestCreateKeepsSuppliedStatusAndAddress(t *testing.T) {
	repo := New()
	n := widgetOrder(3)
	n.Status = order.StatusShipped
	n.ShippingAddress = &order.Address{City: "Oslo"}

	created, err := repo.Create(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, created.Status)
	require.NotNil(t, created.ShippingAddress)
	assert.Equal(t, "Oslo", created.ShippingAddress.City)

	n.ShippingAddress.City = "mutated"
	n.Items[0].ProductID = "mutated"
	got, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oslo", got.ShippingAddress.City)
	assert.Equal(t, "P1", got.Items[0].ProductID)
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	repo := New()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		o, err := repo.Create(context.Background(), widgetOrder(1))
		require.NoError(t, err)
		require.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Second)
	repo := New(WithClock(clock.Now))

	var ids []string
	for i := 0; i < 5; i++ {
		o, err := repo.Create(ctx, widgetOrder(i%2+1))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	require.NoError(t, repo.Delete(ctx, ids[2]))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []string{ids[4], ids[3], ids[1], ids[0]}, idsOf(list))
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.After(list[i].CreatedAt))
	}
}

func TestSerializedTimestampsSortAsStrings(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(500 * time.Millisecond)
	repo := New(WithClock(clock.Now))

	var stamps []string
	for i := 0; i < 3; i++ {
		o, err := repo.Create(ctx, widgetOrder(1))
		require.NoError(t, err)

		var raw map[string]any
		b, err := json.Marshal(o)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(b, &raw))
		stamps = append(stamps, raw["createdAt"].(string))
	}

	assert.Equal(t, []string{
		"2025-03-01T12:00:00.000Z",
		"2025-03-01T12:00:00.500Z",
		"2025-03-01T12:00:01.000Z",
	}, stamps)
	for i := 1; i < len(stamps); i++ {
		assert.Less(t, stamps[i-1], stamps[i])
	}
}

func TestTimestampsHaveMillisecondPrecision(t *testing.T) {
	ctx := context.Background()
	repo := New(WithClock(func() time.Time {
		return time.Date(2025, 3, 1, 13, 0, 0, 123456789, time.FixedZone("CET", 3600))
	}))

	o, err := repo.Create(ctx, widgetOrder(1))
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 3, 1, 12, 0, 0, 123000000, time.UTC).Equal(o.CreatedAt), o.CreatedAt)
	assert.Equal(t, time.UTC, o.CreatedAt.Location())
}

func TestListWithEqualTimestamps(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(0)
	repo := New(WithClock(clock.Now))

	want := make(map[string]bool)
	for i := 0; i < 10; i++ {
		o, err := repo.Create(ctx, widgetOrder(1))
		require.NoError(t, err)
		want[o.ID] = true
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 10)
	got := make(map[string]bool)
	for _, o := range list {
		got[o.ID] = true
	}
	assert.Equal(t, want, got)
}

func TestListEmpty(t *testing.T) {
	list, err := New().List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Second)
	repo := New(WithClock(clock.Now))

	a, _ := repo.Create(ctx, widgetOrder(1))
	_, _ = repo.Create(ctx, widgetOrder(2))
	c, _ := repo.Create(ctx, widgetOrder(1))

	byInt, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, idsOf(byInt))

	id, ok := order.ParseUserID("1")
	require.True(t, ok)
	byString, err := repo.ListByUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, byInt, byString)

	none, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdatePreservesUnnamedFields(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Millisecond)
	repo := New(WithClock(clock.Now))

	n := widgetOrder(7)
	n.ShippingAddress = &order.Address{Street: "1 Road", City: "Town"}
	created, err := repo.Create(ctx, n)
	require.NoError(t, err)

	total := 99.5
	updated, err := repo.Update(ctx, created.ID, order.Patch{TotalAmount: &total})
	require.NoError(t, err)

	assert.Equal(t, 99.5, updated.TotalAmount)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.UserID, updated.UserID)
	assert.Equal(t, created.Items, updated.Items)
	assert.Equal(t, created.Status, updated.Status)
	assert.Equal(t, created.ShippingAddress, updated.ShippingAddress)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	stored, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestUpdateReplacesAddressWholesale(t *testing.T) {
	ctx := context.Background()
	repo := New()

	n := widgetOrder(1)
	n.ShippingAddress = &order.Address{Street: "1 Road", City: "Town", Country: "X"}
	created, err := repo.Create(ctx, n)
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, order.Patch{ShippingAddress: &order.Address{City: "New"}})
	require.NoError(t, err)
	assert.Equal(t, &order.Address{City: "New"}, updated.ShippingAddress)
}

func TestUpdatedAtNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(0)
	repo := New(WithClock(clock.Now))

	created, err := repo.Create(ctx, widgetOrder(1))
	require.NoError(t, err)

	clock.Set(created.CreatedAt.Add(-time.Hour))
	updated, err := repo.UpdateStatus(ctx, created.ID, order.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, updated.UpdatedAt)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
}

func TestUpdateStatusIsUnrestricted(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Second)
	repo := New(WithClock(clock.Now))

	created, err := repo.Create(ctx, widgetOrder(1))
	require.NoError(t, err)

	last := created.UpdatedAt
	for _, s := range []order.Status{order.StatusDelivered, order.StatusPending, order.Status("anything")} {
		o, err := repo.UpdateStatus(ctx, created.ID, s)
		require.NoError(t, err)
		assert.Equal(t, s, o.Status)
		assert.True(t, o.UpdatedAt.After(last))
		assert.Equal(t, created.CreatedAt, o.CreatedAt)
		last = o.UpdatedAt
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	repo := New()
	_, _ = repo.Create(ctx, widgetOrder(1))

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)

	_, err = repo.Update(ctx, "missing", order.Patch{})
	assert.ErrorIs(t, err, order.ErrNotFound)

	_, err = repo.UpdateStatus(ctx, "missing", order.StatusShipped)
	assert.ErrorIs(t, err, order.ErrNotFound)

	err = repo.Delete(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.Equal(t, 1, repo.Len())
}

func TestDeletedIDIsNotReused(t *testing.T) {
	ctx := context.Background()
	repo := New()

	first, err := repo.Create(ctx, widgetOrder(1))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, first.ID))

	second, err := repo.Create(ctx, widgetOrder(1))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	err = repo.Delete(ctx, first.ID)
	assert.True(t, errors.Is(err, order.ErrNotFound))
}

func TestReturnedOrdersAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := New()

	n := widgetOrder(1)
	n.ShippingAddress = &order.Address{City: "Town"}
	created, err := repo.Create(ctx, n)
	require.NoError(t, err)

	created.Items[0].Quantity = 1000
	created.ShippingAddress.City = "mutated"

	list, err := repo.List(ctx)
	require.NoError(t, err)
	list[0].Items[0].ProductName = "mutated"

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "Widget", got.Items[0].ProductName)
	assert.Equal(t, "Town", got.ShippingAddress.City)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds an empty store once", func(t *testing.T) {
		repo := New()
		seeded, err := repo.Seed(ctx, order.SampleOrders())
		require.NoError(t, err)
		assert.True(t, seeded)
		assert.Equal(t, 2, repo.Len())

		seeded, err = repo.Seed(ctx, order.SampleOrders())
		require.NoError(t, err)
		assert.False(t, seeded)
		assert.Equal(t, 2, repo.Len())

		byUser, err := repo.ListByUser(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, byUser, 2)
	})

	t.Run("never seeds a populated store", func(t *testing.T) {
		repo := New()
		_, err := repo.Create(ctx, widgetOrder(5))
		require.NoError(t, err)

		seeded, err := repo.Seed(ctx, order.SampleOrders())
		require.NoError(t, err)
		assert.False(t, seeded)
		assert.Equal(t, 1, repo.Len())
	})
}

func TestWithIDGenerator(t *testing.T) {
	n := 0
	repo := New(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("order-%d", n)
	}))
	o, err := repo.Create(context.Background(), widgetOrder(1))
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := repo.Create(ctx, widgetOrder(i%3))
			if err != nil {
				return
			}
			_, _ = repo.UpdateStatus(ctx, o.ID, order.StatusConfirmed)
			_, _ = repo.List(ctx)
			_, _ = repo.ListByUser(ctx, i%3)
			if i%2 == 0 {
				_ = repo.Delete(ctx, o.ID)
			}
		}(i)
	}
	wg.Wait()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 10)
}

func idsOf(orders []order.Order) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}
