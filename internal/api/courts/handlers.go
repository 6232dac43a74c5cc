// internal/api/courts/handlers.go
package courts

import (
	"context"
	"database/sql"
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
	queries      *appdb.Queries
	handlersOnce sync.Once
)

const courtQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	handlersOnce.Do(func() {
		queries = database.Queries
	})
}

type slotView struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Booked bool   `json:"booked"`
}

type toggleRequest struct {
	Selection []string `json:"selection"`
	Clicked   string   `json:"clicked"`
}

// GET /api/v1/courts
func HandleCourtsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	courts, err := queries.ListCourts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list courts")
		http.Error(w, "Failed to list courts", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, courts); err != nil {
		logger.Error().Err(err).Msg("Failed to write courts response")
		return
	}
}

// GET /api/v1/courts/{id}/slots?date=...
func HandleCourtSlots(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		http.Error(w, "Invalid court ID", http.StatusBadRequest)
		return
	}
	date, err := booking.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	court, err := loadCourt(ctx, courtID)
	if err != nil {
		writeCourtError(w, logger, courtID, err)
		return
	}

	reservations, err := queries.ListReservationsByCourtDate(ctx, appdb.ListReservationsByCourtDateParams{
		CourtID: courtID,
		Date:    date.Format("2006-01-02"),
	})
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to load reservations for slot grid")
		http.Error(w, "Failed to load reservations", http.StatusInternalServerError)
		return
	}

	slots := booking.GenerateSlots(court)
	views := make([]slotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, slotView{
			Start:  slot.String(),
			End:    slot.Add(court.SlotInterval).String(),
			Booked: slotBooked(slot, court.SlotInterval, reservations),
		})
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, views); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write slot grid response")
		return
	}
}

// POST /api/v1/courts/{id}/slots/toggle
func HandleSlotToggle(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		http.Error(w, "Invalid court ID", http.StatusBadRequest)
		return
	}

	var req toggleRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	selection, err := booking.ParseClocks(req.Selection)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	clicked, err := booking.ParseClock(req.Clicked)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	court, err := loadCourt(ctx, courtID)
	if err != nil {
		writeCourtError(w, logger, courtID, err)
		return
	}

	next := booking.ToggleSlot(selection, clicked, court.SlotInterval)
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"selection": booking.FormatClocks(next),
	}); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write selection response")
		return
	}
}

func loadCourt(ctx context.Context, courtID int64) (booking.Court, error) {
	row, err := queries.GetCourtByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Court{}, booking.ErrCourtNotFound
		}
		return booking.Court{}, err
	}
	return booking.CourtFromRow(row)
}

func slotBooked(slot booking.Clock, interval int, reservations []appdb.Reservation) bool {
	start := int64(slot)
	end := int64(slot.Add(interval))
	for _, reservation := range reservations {
		if reservation.StartMinutes < end && reservation.EndMinutes > start {
			return true
		}
	}
	return false
}

func writeCourtError(w http.ResponseWriter, logger *zerolog.Logger, courtID int64, err error) {
	if errors.Is(err, booking.ErrCourtNotFound) {
		http.Error(w, "Court not found", http.StatusNotFound)
		return
	}
	logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to load court")
	http.Error(w, "Failed to load court", http.StatusInternalServerError)
}
