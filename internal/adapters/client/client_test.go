package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room_booking/internal/adapters/client"
	httpserver "room_booking/internal/adapters/http_server"
	"room_booking/internal/app"
	"room_booking/internal/domain"
	"room_booking/internal/storage/sqlite"
)

func newClient(t *testing.T, url string) *client.Client {
	t.Helper()
	cl, err := client.New(url, 100) // high RPS for tests
	require.NoError(t, err)
	return cl
}

func ctxTimeout(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

func TestNew_RequiresBase(t *testing.T) {
	_, err := client.New("", 1)
	assert.Error(t, err)
}

func TestClient_ListRooms_RetriesThenSuccess(t *testing.T) {
	var hits int32
	var ids []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-Id"))
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(http.StatusBadGateway)
		default:
			assert.Equal(t, "-price", r.URL.Query().Get("ordering"))
			_ = json.NewEncoder(w).Encode([]domain.RoomView{{ID: 1, Price: "100.00"}})
		}
	}))
	defer ts.Close()

	rooms, err := newClient(t, ts.URL).ListRooms(ctxTimeout(t, 5*time.Second), "-price")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	require.Len(t, ids, 3)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, ids[0], ids[2], "retries reuse the request id")
}

func TestClient_CreateBooking_NoRetryOn500(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).CreateBooking(ctxTimeout(t, 5*time.Second), 1, "2021-01-07", "2021-01-14")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_CreateRoom_NoRetryOn503(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		// a timed-out handler may still commit behind this response
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).CreateRoom(ctxTimeout(t, 5*time.Second), "Sea view", "120.00")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_ListBookings_RetriesOn503(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]domain.BookingView{{ID: 4, RoomID: 2}})
	}))
	defer ts.Close()

	bs, err := newClient(t, ts.URL).ListBookings(ctxTimeout(t, 5*time.Second), 0, "")
	require.NoError(t, err)
	require.Len(t, bs, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_CreateRoom_RetriesOn429(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.RoomView{ID: 9, Description: body["description"], Price: body["price"]})
	}))
	defer ts.Close()

	room, err := newClient(t, ts.URL).CreateRoom(ctxTimeout(t, 5*time.Second), "Sea view", "120.00")
	require.NoError(t, err)
	assert.Equal(t, int64(9), room.ID)
	assert.Equal(t, "Sea view", room.Description)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

// Runs the client against the real handlers backed by SQLite.
func TestClient_AgainstServer(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlite.New(db)
	require.NoError(t, repo.Migrate(context.Background()))

	lists := app.NewListCache(nil)
	srv := httpserver.New(httpserver.Options{})
	srv.MountHandlers(&httpserver.Handlers{
		C: app.NewCommandService(repo, lists),
		Q: app.NewQueryService(repo, lists, time.Minute),
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	cl := newClient(t, ts.URL)
	ctx := ctxTimeout(t, 10*time.Second)

	room, err := cl.CreateRoom(ctx, "Garden room", "80.5")
	require.NoError(t, err)
	assert.Equal(t, "80.50", room.Price)

	_, err = cl.CreateRoom(ctx, "tiny", "80")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Errors, "description")

	b, err := cl.CreateBooking(ctx, room.ID, "2021-01-07", "2021-01-14")
	require.NoError(t, err)

	_, err = cl.CreateBooking(ctx, room.ID, "2021-01-10", "2021-01-11")
	assert.ErrorIs(t, err, domain.ErrOverlappingDates)

	bs, err := cl.ListBookings(ctx, room.ID, "begin_date")
	require.NoError(t, err)
	require.Len(t, bs, 1)
	assert.Equal(t, b.ID, bs[0].ID)

	require.NoError(t, cl.DeleteBooking(ctx, b.ID))
	assert.ErrorIs(t, cl.DeleteBooking(ctx, b.ID), domain.ErrNotFound)

	require.NoError(t, cl.DeleteRoom(ctx, room.ID))
	rooms, err := cl.ListRooms(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
