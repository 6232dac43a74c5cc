// internal/booking/service.go
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appdb "github.com/mlgrn/courtbook/internal/db"
)

const dateLayout = "2006-01-02"

// Service turns a validated BookingRequest into a priced, atomically
// committed batch of reservations plus one wallet delta and one ledger entry.
type Service struct {
	db *appdb.DB
}

func NewService(database *appdb.DB) *Service {
	return &Service{db: database}
}

// SessionCharge is one entry of a batch's per-session breakdown, recorded on
// the ledger activity.
type SessionCharge struct {
	ReservationID  int64  `json:"reservation_id"`
	Date           string `json:"date"`
	CostCents      int64  `json:"cost_cents"`
	OverdraftCents int64  `json:"overdraft_cents"`
}

// BatchResult reports a committed batch.
type BatchResult struct {
	BatchID         string              `json:"batch_id"`
	Reservations    []appdb.Reservation `json:"reservations"`
	TotalCents      int64               `json:"total_cents"`
	OverdraftCents  int64               `json:"overdraft_cents"`
	NewBalanceCents *int64              `json:"new_balance_cents,omitempty"`
}

// CreateBatch runs a booking request end to end: validate, price, allocate,
// commit. Every failure before the transaction leaves storage untouched;
// every failure inside it rolls the whole batch back.
func (s *Service) CreateBatch(ctx context.Context, req BookingRequest) (BatchResult, error) {
	logger := log.Ctx(ctx)

	court, bands, err := s.loadCourt(ctx, req.CourtID)
	if err != nil {
		return BatchResult{}, err
	}

	if err := req.Validate(court); err != nil {
		return BatchResult{}, err
	}

	dates, err := req.SessionDates()
	if err != nil {
		return BatchResult{}, err
	}

	slots := sortedClocks(req.Slots)
	perSessionCents, err := Quote(court, bands, req.RoleID, slots, req.Heater, req.Light)
	if err != nil {
		return BatchResult{}, err
	}
	totalCents := perSessionCents * int64(len(dates))

	var wallet *appdb.Wallet
	var alloc Allocation
	if req.MemberID != nil {
		found, err := s.db.Queries.GetWalletByMemberID(ctx, *req.MemberID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return BatchResult{}, ErrWalletNotFound
			}
			return BatchResult{}, fmt.Errorf("loading wallet: %w", err)
		}
		wallet = &found

		alloc, err = Allocate(totalCents, wallet.BalanceCents, req.AllowOverdraft, len(dates))
		if err != nil {
			return BatchResult{}, err
		}
		if wallet.OverdraftLimitCents.Valid && alloc.OverdraftCents > wallet.OverdraftLimitCents.Int64 {
			return BatchResult{}, ValidationError{Field: "wallet", Reason: "overdraft would exceed the wallet's overdraft limit"}
		}
	} else {
		// Guest and group batches carry no wallet: the reservations are
		// still priced, but nothing is charged and no ledger entry is cut.
		alloc = Allocation{TotalCents: totalCents, PerSessionOverdraftCents: make([]int64, len(dates))}
	}

	batchID := uuid.New().String()
	result := BatchResult{
		BatchID:        batchID,
		TotalCents:     totalCents,
		OverdraftCents: alloc.OverdraftCents,
	}

	startMinutes := int64(slots[0])
	endMinutes := int64(slots[len(slots)-1].Add(court.SlotInterval))
	slotsJSON, err := json.Marshal(FormatClocks(slots))
	if err != nil {
		return BatchResult{}, fmt.Errorf("encoding slot list: %w", err)
	}

	err = s.db.RunInTx(ctx, func(txdb *appdb.DB) error {
		qtx := txdb.Queries
		charges := make([]SessionCharge, 0, len(dates))

		for i, date := range dates {
			dateValue := date.Format(dateLayout)

			overlapping, err := qtx.CountOverlappingReservations(ctx, appdb.CountOverlappingReservationsParams{
				CourtID:      court.ID,
				Date:         dateValue,
				StartMinutes: startMinutes,
				EndMinutes:   endMinutes,
			})
			if err != nil {
				return fmt.Errorf("checking slot availability: %w", err)
			}
			if overlapping > 0 {
				return SlotConflictError{CourtID: court.ID, Date: dateValue}
			}

			amountPaid := int64(0)
			if wallet != nil {
				amountPaid = perSessionCents
			}
			created, err := qtx.CreateReservation(ctx, appdb.CreateReservationParams{
				CourtID:         court.ID,
				Date:            dateValue,
				StartMinutes:    startMinutes,
				EndMinutes:      endMinutes,
				DurationMinutes: endMinutes - startMinutes,
				Slots:           string(slotsJSON),
				MemberID:        toNullInt64(req.MemberID),
				GuestName:       toNullString(req.GuestName),
				TotalCostCents:  perSessionCents,
				AmountPaidCents: amountPaid,
				OverdraftCents:  alloc.PerSessionOverdraftCents[i],
				Heater:          req.Heater,
				Light:           req.Light,
				BulkGroupName:   toNullString(req.BulkGroupName),
				BatchID:         batchID,
			})
			if err != nil {
				return fmt.Errorf("creating reservation: %w", err)
			}

			result.Reservations = append(result.Reservations, created)
			charges = append(charges, SessionCharge{
				ReservationID:  created.ID,
				Date:           dateValue,
				CostCents:      perSessionCents,
				OverdraftCents: alloc.PerSessionOverdraftCents[i],
			})
		}

		if wallet != nil {
			updated, err := qtx.UpdateWalletBalance(ctx, appdb.UpdateWalletBalanceParams{
				WalletID:     wallet.ID,
				BalanceCents: alloc.NewBalanceCents,
			})
			if err != nil {
				return fmt.Errorf("updating wallet balance: %w", err)
			}
			result.NewBalanceCents = &updated.BalanceCents

			breakdown, err := json.Marshal(charges)
			if err != nil {
				return fmt.Errorf("encoding ledger breakdown: %w", err)
			}
			if _, err := qtx.CreateLedgerActivity(ctx, appdb.CreateLedgerActivityParams{
				BatchID:    batchID,
				WalletID:   wallet.ID,
				MemberID:   wallet.MemberID,
				TotalCents: totalCents,
				Breakdown:  string(breakdown),
				Actor:      req.Actor,
			}); err != nil {
				return fmt.Errorf("creating ledger activity: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}

	logger.Info().
		Str("batch_id", batchID).
		Int64("court_id", court.ID).
		Int("sessions", len(result.Reservations)).
		Int64("total_cents", totalCents).
		Int64("overdraft_cents", alloc.OverdraftCents).
		Msg("Booking batch committed")

	return result, nil
}

// Cancel flips one reservation to cancelled. Money corrections are ledger
// entries handled elsewhere, never edits to the reservation's cost fields.
func (s *Service) Cancel(ctx context.Context, reservationID int64) error {
	cancelled, err := s.db.Queries.CancelReservation(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("cancelling reservation: %w", err)
	}
	if cancelled == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// QuoteForCourt loads a court's rate configuration and prices the slot set
// without staging any write.
func (s *Service) QuoteForCourt(ctx context.Context, courtID int64, roleID *int64, slots []Clock, heater, light bool) (int64, error) {
	court, bands, err := s.loadCourt(ctx, courtID)
	if err != nil {
		return 0, err
	}
	sorted := sortedClocks(slots)
	if !Contiguous(sorted, court.SlotInterval) {
		return 0, ValidationError{Field: "slots", Reason: "must form one contiguous block"}
	}
	return Quote(court, bands, roleID, sorted, heater, light)
}

func (s *Service) loadCourt(ctx context.Context, courtID int64) (Court, []RateBand, error) {
	row, err := s.db.Queries.GetCourtByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Court{}, nil, ErrCourtNotFound
		}
		return Court{}, nil, fmt.Errorf("loading court: %w", err)
	}

	court, err := CourtFromRow(row)
	if err != nil {
		return Court{}, nil, err
	}

	bandRows, err := s.db.Queries.ListRateBandsForCourt(ctx, courtID)
	if err != nil {
		return Court{}, nil, fmt.Errorf("loading rate bands: %w", err)
	}
	priceRows, err := s.db.Queries.ListRolePricesForCourt(ctx, courtID)
	if err != nil {
		return Court{}, nil, fmt.Errorf("loading role prices: %w", err)
	}

	bands, err := RateBandsFromRows(bandRows, priceRows)
	if err != nil {
		return Court{}, nil, err
	}
	return court, bands, nil
}

// CourtFromRow converts a stored court into the engine's domain shape.
func CourtFromRow(row appdb.Court) (Court, error) {
	from, err := ParseClock(row.AvailableFrom)
	if err != nil {
		return Court{}, fmt.Errorf("court %d available_from: %w", row.ID, err)
	}
	until, err := ParseClock(row.AvailableUntil)
	if err != nil {
		return Court{}, fmt.Errorf("court %d available_until: %w", row.ID, err)
	}

	court := Court{
		ID:             row.ID,
		Name:           row.Name,
		AvailableFrom:  from,
		AvailableUntil: until,
		SlotInterval:   int(row.SlotIntervalMinutes),
	}
	if row.HeatingCostCents.Valid {
		value := row.HeatingCostCents.Int64
		court.HeatingCostCents = &value
	}
	if row.LightingCostCents.Valid {
		value := row.LightingCostCents.Int64
		court.LightingCostCents = &value
	}
	if !ValidSlotInterval(court.SlotInterval) {
		return Court{}, fmt.Errorf("court %d has unsupported slot interval %d", row.ID, court.SlotInterval)
	}
	return court, nil
}

// RateBandsFromRows assembles domain rate bands from band rows and their
// role override prices.
func RateBandsFromRows(bandRows []appdb.RateBand, priceRows []appdb.RateBandRolePrice) ([]RateBand, error) {
	overrides := make(map[int64]map[int64]int64, len(bandRows))
	for _, price := range priceRows {
		if overrides[price.RateBandID] == nil {
			overrides[price.RateBandID] = make(map[int64]int64)
		}
		overrides[price.RateBandID][price.RoleID] = price.PriceCents
	}

	bands := make([]RateBand, 0, len(bandRows))
	for _, row := range bandRows {
		from, err := ParseClock(row.FromTime)
		if err != nil {
			return nil, fmt.Errorf("rate band %d from_time: %w", row.ID, err)
		}
		until, err := ParseClock(row.UntilTime)
		if err != nil {
			return nil, fmt.Errorf("rate band %d until_time: %w", row.ID, err)
		}
		bands = append(bands, RateBand{
			From:           from,
			Until:          until,
			BasePriceCents: row.BasePriceCents,
			RolePrices:     overrides[row.ID],
		})
	}
	return bands, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: must be in YYYY-MM-DD format", value)
	}
	return parsed, nil
}

func toNullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func toNullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
