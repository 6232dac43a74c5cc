// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mlgrn/courtbook/internal/api/apiutil"
	"github.com/mlgrn/courtbook/internal/booking"
	appdb "github.com/mlgrn/courtbook/internal/db"
)

var (
	svc          *booking.Service
	queries      *appdb.Queries
	handlersOnce sync.Once
)

const bookingQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	handlersOnce.Do(func() {
		svc = booking.NewService(database)
		queries = database.Queries
	})
}

type bookingRequest struct {
	CourtID        int64    `json:"court_id"`
	MemberID       *int64   `json:"member_id,omitempty"`
	RoleID         *int64   `json:"role_id,omitempty"`
	GuestName      string   `json:"guest_name,omitempty"`
	Date           string   `json:"date,omitempty"`
	Slots          []string `json:"slots"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	Weekdays       []string `json:"weekdays,omitempty"`
	Heater         bool     `json:"heater"`
	Light          bool     `json:"light"`
	AllowOverdraft bool     `json:"allow_overdraft"`
	BulkGroupName  string   `json:"bulk_group_name,omitempty"`
	Actor          string   `json:"actor,omitempty"`
}

type quoteRequest struct {
	CourtID int64    `json:"court_id"`
	RoleID  *int64   `json:"role_id,omitempty"`
	Slots   []string `json:"slots"`
	Heater  bool     `json:"heater"`
	Light   bool     `json:"light"`
}

// POST /api/v1/bookings
func HandleBookingCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	request, err := toBookingRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	result, err := svc.CreateBatch(ctx, request)
	if err != nil {
		writeBookingError(w, logger, req.CourtID, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, result); err != nil {
		logger.Error().Err(err).Str("batch_id", result.BatchID).Msg("Failed to write booking response")
		return
	}
}

// POST /api/v1/bookings/quote
func HandleBookingQuote(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req quoteRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.CourtID <= 0 {
		http.Error(w, "court_id must be a positive integer", http.StatusBadRequest)
		return
	}

	slots, err := booking.ParseClocks(req.Slots)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(slots) == 0 {
		http.Error(w, "slots must include at least one slot", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	totalCents, err := svc.QuoteForCourt(ctx, req.CourtID, req.RoleID, slots, req.Heater, req.Light)
	if err != nil {
		writeBookingError(w, logger, req.CourtID, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"total_cents":   totalCents,
		"total_display": apiutil.FormatPriceCents(totalCents),
	}); err != nil {
		logger.Error().Err(err).Int64("court_id", req.CourtID).Msg("Failed to write quote response")
		return
	}
}

// GET /api/v1/bookings?court_id=...&date=...
func HandleBookingsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.ParsePositiveInt64Field(r.URL.Query().Get("court_id"), "court_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date, err := booking.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	reservations, err := queries.ListReservationsByCourtDate(ctx, appdb.ListReservationsByCourtDateParams{
		CourtID: courtID,
		Date:    date.Format("2006-01-02"),
	})
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to list reservations")
		http.Error(w, "Failed to list reservations", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, reservations); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write reservation list response")
		return
	}
}

// DELETE /api/v1/bookings/{id}
func HandleBookingCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	reservationID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		http.Error(w, "Invalid reservation ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	if err := svc.Cancel(ctx, reservationID); err != nil {
		if errors.Is(err, booking.ErrReservationNotFound) {
			http.Error(w, "Reservation not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to cancel reservation")
		http.Error(w, "Failed to cancel reservation", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toBookingRequest(req bookingRequest) (booking.BookingRequest, error) {
	slots, err := booking.ParseClocks(req.Slots)
	if err != nil {
		return booking.BookingRequest{}, err
	}

	request := booking.BookingRequest{
		CourtID:        req.CourtID,
		MemberID:       req.MemberID,
		RoleID:         req.RoleID,
		GuestName:      strings.TrimSpace(req.GuestName),
		Slots:          slots,
		Heater:         req.Heater,
		Light:          req.Light,
		AllowOverdraft: req.AllowOverdraft,
		BulkGroupName:  strings.TrimSpace(req.BulkGroupName),
		Actor:          strings.TrimSpace(req.Actor),
	}

	if req.Date != "" {
		date, err := booking.ParseDate(req.Date)
		if err != nil {
			return booking.BookingRequest{}, err
		}
		request.Date = date
	}

	if req.StartDate != "" || req.EndDate != "" || len(req.Weekdays) > 0 {
		startDate, err := booking.ParseDate(req.StartDate)
		if err != nil {
			return booking.BookingRequest{}, err
		}
		endDate, err := booking.ParseDate(req.EndDate)
		if err != nil {
			return booking.BookingRequest{}, err
		}
		weekdays, err := parseWeekdays(req.Weekdays)
		if err != nil {
			return booking.BookingRequest{}, err
		}
		request.Recurrence = &booking.Recurrence{
			StartDate: startDate,
			EndDate:   endDate,
			Weekdays:  weekdays,
		}
	}

	return request, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(values []string) ([]time.Weekday, error) {
	weekdays := make([]time.Weekday, 0, len(values))
	for _, value := range values {
		weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(value))]
		if !ok {
			return nil, apiutil.FieldError{Field: "weekdays", Reason: "must contain weekday names"}
		}
		weekdays = append(weekdays, weekday)
	}
	return weekdays, nil
}

func writeBookingError(w http.ResponseWriter, logger *zerolog.Logger, courtID int64, err error) {
	var validationErr booking.ValidationError
	var conflictErr booking.SlotConflictError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &conflictErr):
		http.Error(w, conflictErr.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrCourtNotFound):
		http.Error(w, "Court not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrWalletNotFound):
		http.Error(w, "Wallet not found", http.StatusNotFound)
	default:
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to process booking")
		http.Error(w, "Failed to process booking", http.StatusInternalServerError)
	}
}
