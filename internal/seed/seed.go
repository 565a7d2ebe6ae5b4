// Package seed loads rooms and their bookings from a YAML file and creates
// them through the API.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"room_booking/internal/domain"
)

type File struct {
	Rooms []Room `yaml:"rooms"`
}

type Room struct {
	Description string    `yaml:"description"`
	Price       string    `yaml:"price"`
	Bookings    []Booking `yaml:"bookings"`
}

type Booking struct {
	BeginDate string `yaml:"begin_date"`
	EndDate   string `yaml:"end_date"`
}

// API is the subset of the client the seeder needs.
type API interface {
	CreateRoom(ctx context.Context, description, price string) (domain.RoomView, error)
	CreateBooking(ctx context.Context, roomID int64, begin, end string) (domain.BookingView, error)
}

type Report struct {
	RoomsCreated    int
	BookingsCreated int
	Overlaps        int
	Failures        []error
}

func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (File, error) {
	var out File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	return out, nil
}

// Run creates every room with at most workers rooms in flight. Bookings of a
// room are created in file order once the room exists. Overlap rejections
// are counted; other failures are collected and do not stop the run.
func Run(ctx context.Context, api API, f File, workers int) (Report, error) {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		rep Report
	)
	fail := func(err error) {
		mu.Lock()
		rep.Failures = append(rep.Failures, err)
		mu.Unlock()
	}

	for i, room := range f.Rooms {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return rep, err
		}

		wg.Add(1)
		go func(idx int, room Room) {
			defer wg.Done()
			defer sem.Release(1)

			created, err := api.CreateRoom(ctx, room.Description, room.Price)
			if err != nil {
				log.Warn().Int("index", idx).Err(err).Msg("seed room failed")
				fail(fmt.Errorf("room %d (%q): %w", idx, room.Description, err))
				return
			}
			mu.Lock()
			rep.RoomsCreated++
			mu.Unlock()

			for _, b := range room.Bookings {
				_, err := api.CreateBooking(ctx, created.ID, b.BeginDate, b.EndDate)
				switch {
				case err == nil:
					mu.Lock()
					rep.BookingsCreated++
					mu.Unlock()
				case errors.Is(err, domain.ErrOverlappingDates):
					log.Info().Int64("room_id", created.ID).Str("begin", b.BeginDate).Str("end", b.EndDate).Msg("seed booking overlaps, skipped")
					mu.Lock()
					rep.Overlaps++
					mu.Unlock()
				default:
					log.Warn().Int64("room_id", created.ID).Err(err).Msg("seed booking failed")
					fail(fmt.Errorf("booking %s..%s of room %d: %w", b.BeginDate, b.EndDate, created.ID, err))
				}
			}
		}(i, room)
	}

	wg.Wait()
	return rep, nil
}
