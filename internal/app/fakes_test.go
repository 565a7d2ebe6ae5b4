package app_test

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"room_booking/internal/app"
	"room_booking/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu       sync.Mutex
	rooms    map[int64]domain.Room
	bookings map[int64]domain.Booking
	nextID   int64

	listRoomCalls    int
	listBookingCalls int
	err              error

	// when set, ListBookings closes listStarted after reading and then
	// waits for listRelease before returning
	listStarted chan struct{}
	listRelease chan struct{}
}

func (f *fakeRepo) blockListBookings(started, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listStarted, f.listRelease = started, release
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rooms: map[int64]domain.Room{}, bookings: map[int64]domain.Booking{}}
}

func (f *fakeRepo) CreateRoom(ctx context.Context, r *domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	r.ID = f.nextID
	f.rooms[r.ID] = *r
	return nil
}

func (f *fakeRepo) DeleteRoom(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.rooms, id)
	for bid, b := range f.bookings {
		if b.RoomID == id {
			delete(f.bookings, bid)
		}
	}
	return nil
}

func (f *fakeRepo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rooms[b.RoomID]; !ok {
		return domain.ErrRoomNotFound
	}
	existing := make([]domain.Booking, 0, len(f.bookings))
	for _, x := range f.bookings {
		existing = append(existing, x)
	}
	if c, ok := domain.FindConflict(*b, existing); ok {
		return &domain.OverlapError{RoomID: b.RoomID, ConflictID: c.ID}
	}
	f.nextID++
	b.ID = f.nextID
	f.bookings[b.ID] = *b
	return nil
}

func (f *fakeRepo) DeleteBooking(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

// ListRooms honours only the first ordering key; enough for service tests.
func (f *fakeRepo) ListRooms(ctx context.Context, order domain.Ordering) ([]domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listRoomCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(order) > 0 && order[0].Field == domain.OrderPrice {
			if c := out[i].Price.Cmp(out[j].Price); c != 0 {
				return (c < 0) != order[0].Desc
			}
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeRepo) RoomExists(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rooms[id]
	return ok, nil
}

func (f *fakeRepo) ListBookings(ctx context.Context, q domain.BookingsQuery) ([]domain.Booking, error) {
	f.mu.Lock()
	f.listBookingCalls++
	out := []domain.Booking{}
	for _, b := range f.bookings {
		if q.RoomID != nil && b.RoomID != *q.RoomID {
			continue
		}
		out = append(out, b)
	}
	started, release := f.listStarted, f.listRelease
	f.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if started != nil {
		close(started)
		<-release
	}
	return out, nil
}

func (f *fakeRepo) Migrate(ctx context.Context) error { return nil }
func (f *fakeRepo) Ping(ctx context.Context) error    { return nil }

// newServices wires both services over one ListCache. A nil cache disables
// caching.
func newServices(repo *fakeRepo, cache *fakeCache) (*app.CommandService, *app.QueryService) {
	lc := listCache(cache)
	return app.NewCommandService(repo, lc).WithClock(fixedNow), app.NewQueryService(repo, lc, time.Minute)
}

func listCache(cache *fakeCache) *app.ListCache {
	if cache == nil {
		return app.NewListCache(nil)
	}
	return app.NewListCache(cache)
}

// fakeCache stores JSON like the Redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, prefix)
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

func (c *fakeCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.store))
	for k := range c.store {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
