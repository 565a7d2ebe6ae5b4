package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"room_booking/internal/app"
	"room_booking/internal/domain"
)

const maxBodyBytes = 1 << 20

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	C      *app.CommandService
	Q      *app.QueryService
	Health Pinger
}

type problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.healthz)
	s.mux.Route("/room", func(r chi.Router) {
		r.Get("/", h.listRooms)
		r.Post("/", h.createRoom)
		r.Delete("/{id}", h.deleteRoom)
	})
	s.mux.Route("/booking", func(r chi.Router) {
		r.Get("/", h.listBookings)
		r.Post("/", h.createBooking)
		r.Delete("/{id}", h.deleteBooking)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string, fields map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Errors: fields}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors to HTTP problems. Unknown errors are logged
// and reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *domain.ValidationError
		ref *domain.ReferenceError
	)
	switch {
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", "request has invalid fields", ve.Fields)
	case errors.Is(err, domain.ErrOverlappingDates):
		writeProblem(w, http.StatusBadRequest, "Overlapping Dates", domain.ErrOverlappingDates.Error(),
			map[string][]string{domain.NonFieldErrors: {domain.ErrOverlappingDates.Error()}})
	case errors.As(err, &ref):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", "referenced room does not exist",
			map[string][]string{ref.Field: {referenceMessage(ref)}})
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "", nil)
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "request timed out", nil)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
	}
}

func referenceMessage(e *domain.ReferenceError) string {
	if e.Field == "room" {
		return "Select a valid choice. That choice is not one of the available choices."
	}
	return fmt.Sprintf("Invalid pk %q - object does not exist.", e.Value)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeList(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write list body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ---- request decoding ----

// flexString accepts a JSON string or number and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

type roomRequest struct {
	Description flexString `json:"description"`
	Price       flexString `json:"price"`
}

type bookingRequest struct {
	BeginDate flexString `json:"begin_date"`
	EndDate   flexString `json:"end_date"`
	RoomID    flexString `json:"room_id"`
}

var errMalformedBody = errors.New("malformed request body")

// decodeBody fills dst from a JSON body, or returns the form values when the
// request is form-encoded. An empty JSON body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) (form map[string][]string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return r.PostForm, nil
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return r.PostForm, nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil, nil
}

func first(form map[string][]string, key string) string {
	if v := form[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func decodeRoom(w http.ResponseWriter, r *http.Request) (app.RoomInput, error) {
	var req roomRequest
	form, err := decodeBody(w, r, &req)
	if err != nil {
		return app.RoomInput{}, err
	}
	if form != nil {
		return app.RoomInput{Description: first(form, "description"), Price: first(form, "price")}, nil
	}
	return app.RoomInput{Description: string(req.Description), Price: string(req.Price)}, nil
}

func decodeBooking(w http.ResponseWriter, r *http.Request) (app.BookingInput, error) {
	var req bookingRequest
	form, err := decodeBody(w, r, &req)
	if err != nil {
		return app.BookingInput{}, err
	}
	if form != nil {
		return app.BookingInput{
			BeginDate: first(form, "begin_date"),
			EndDate:   first(form, "end_date"),
			RoomID:    first(form, "room_id"),
		}, nil
	}
	return app.BookingInput{
		BeginDate: string(req.BeginDate),
		EndDate:   string(req.EndDate),
		RoomID:    string(req.RoomID),
	}, nil
}

// pathID parses the {id} segment. Anything but a positive integer is not a
// resource we could have.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ---- handlers ----

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health check failed")
			writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "store unreachable", nil)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRoom(w, r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Malformed Request", err.Error(), nil)
		return
	}
	room, err := h.C.CreateRoom(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Q.ListRooms(r.Context(), r.URL.Query().Get("ordering"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, rooms)
}

func (h *Handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "", nil)
		return
	}
	if err := h.C.DeleteRoom(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	in, err := decodeBooking(w, r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Malformed Request", err.Error(), nil)
		return
	}
	b, err := h.C.CreateBooking(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookings, err := h.Q.ListBookings(r.Context(), app.BookingListInput{
		Room:     q.Get("room"),
		Ordering: q.Get("ordering"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, bookings)
}

func (h *Handlers) deleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "", nil)
		return
	}
	if err := h.C.DeleteBooking(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
