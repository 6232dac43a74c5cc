package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	appdb "github.com/mlgrn/courtbook/internal/db"
	"github.com/mlgrn/courtbook/internal/testutil"
)

const juniorRoleID = int64(2)

func seedCourt(t *testing.T, database *appdb.DB, interval int) int64 {
	t.Helper()
	ctx := context.Background()

	result, err := database.ExecContext(ctx,
		`INSERT INTO courts (name, available_from, available_until, slot_interval_minutes, heating_cost_cents, lighting_cost_cents)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"Court 1", "08:00", "22:00", interval, 120, 60,
	)
	if err != nil {
		t.Fatalf("insert court: %v", err)
	}
	courtID, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("court id: %v", err)
	}

	bandResult, err := database.ExecContext(ctx,
		`INSERT INTO rate_bands (court_id, from_time, until_time, base_price_cents) VALUES (?, ?, ?, ?)`,
		courtID, "08:00", "17:00", 600,
	)
	if err != nil {
		t.Fatalf("insert day band: %v", err)
	}
	dayBandID, err := bandResult.LastInsertId()
	if err != nil {
		t.Fatalf("day band id: %v", err)
	}
	if _, err := database.ExecContext(ctx,
		`INSERT INTO rate_band_role_prices (rate_band_id, role_id, price_cents) VALUES (?, ?, ?)`,
		dayBandID, juniorRoleID, 300,
	); err != nil {
		t.Fatalf("insert role price: %v", err)
	}
	if _, err := database.ExecContext(ctx,
		`INSERT INTO rate_bands (court_id, from_time, until_time, base_price_cents) VALUES (?, ?, ?, ?)`,
		courtID, "17:00", "22:00", 900,
	); err != nil {
		t.Fatalf("insert evening band: %v", err)
	}

	return courtID
}

func seedMemberWallet(t *testing.T, database *appdb.DB, balanceCents int64, overdraftLimitCents *int64) int64 {
	t.Helper()
	ctx := context.Background()

	result, err := database.ExecContext(ctx,
		`INSERT INTO members (name, role_id) VALUES (?, ?)`, "Alex Martin", 1,
	)
	if err != nil {
		t.Fatalf("insert member: %v", err)
	}
	memberID, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("member id: %v", err)
	}

	var limit any
	if overdraftLimitCents != nil {
		limit = *overdraftLimitCents
	}
	if _, err := database.ExecContext(ctx,
		`INSERT INTO wallets (member_id, balance_cents, opening_balance_cents, overdraft_limit_cents)
		 VALUES (?, ?, ?, ?)`,
		memberID, balanceCents, balanceCents, limit,
	); err != nil {
		t.Fatalf("insert wallet: %v", err)
	}

	return memberID
}

func countRows(t *testing.T, database *appdb.DB, table string) int64 {
	t.Helper()
	var count int64
	if err := database.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM "+table,
	).Scan(&count); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func walletBalance(t *testing.T, database *appdb.DB, memberID int64) int64 {
	t.Helper()
	wallet, err := database.Queries.GetWalletByMemberID(context.Background(), memberID)
	if err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	return wallet.BalanceCents
}

func TestCreateBatch_SingleBooking(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 5000, nil)
	svc := NewService(database)

	result, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		Date:     mustDate(t, "2026-03-02"),
		Slots:    clocks(t, "09:00", "10:00"),
		Actor:    "front-desk",
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	if result.TotalCents != 1200 {
		t.Errorf("total: got %d, want 1200", result.TotalCents)
	}
	if result.OverdraftCents != 0 {
		t.Errorf("overdraft: %d", result.OverdraftCents)
	}
	if result.NewBalanceCents == nil || *result.NewBalanceCents != 3800 {
		t.Errorf("new balance: %v", result.NewBalanceCents)
	}
	if result.BatchID == "" {
		t.Error("missing batch id")
	}
	if len(result.Reservations) != 1 {
		t.Fatalf("reservations: %d", len(result.Reservations))
	}

	reservation := result.Reservations[0]
	if reservation.StartMinutes != 540 || reservation.EndMinutes != 660 {
		t.Errorf("time range: %d-%d", reservation.StartMinutes, reservation.EndMinutes)
	}
	if reservation.DurationMinutes != 120 {
		t.Errorf("duration: %d", reservation.DurationMinutes)
	}
	if reservation.TotalCostCents != 1200 || reservation.AmountPaidCents != 1200 {
		t.Errorf("cost fields: total %d paid %d", reservation.TotalCostCents, reservation.AmountPaidCents)
	}
	if reservation.Status != appdb.ReservationStatusActive {
		t.Errorf("status: %s", reservation.Status)
	}
	if reservation.BatchID != result.BatchID {
		t.Errorf("batch id mismatch: %s vs %s", reservation.BatchID, result.BatchID)
	}

	var storedSlots []string
	if err := json.Unmarshal([]byte(reservation.Slots), &storedSlots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(storedSlots) != 2 || storedSlots[0] != "09:00" || storedSlots[1] != "10:00" {
		t.Errorf("stored slots: %v", storedSlots)
	}

	if got := walletBalance(t, database, memberID); got != 3800 {
		t.Errorf("wallet balance: %d", got)
	}

	activities, err := database.Queries.ListLedgerActivitiesForMember(context.Background(), memberID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("activities: %d", len(activities))
	}
	if activities[0].TotalCents != 1200 || activities[0].BatchID != result.BatchID {
		t.Errorf("activity: total %d batch %s", activities[0].TotalCents, activities[0].BatchID)
	}
	if activities[0].Actor != "front-desk" {
		t.Errorf("actor: %s", activities[0].Actor)
	}
}

func TestCreateBatch_RecurringBatch(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 5000, nil)
	svc := NewService(database)

	result, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		Slots:    clocks(t, "09:00", "10:00"),
		Recurrence: &Recurrence{
			StartDate: mustDate(t, "2026-03-02"),
			EndDate:   mustDate(t, "2026-03-16"),
			Weekdays:  []time.Weekday{time.Monday},
		},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	if len(result.Reservations) != 3 {
		t.Fatalf("reservations: %d", len(result.Reservations))
	}
	if result.TotalCents != 3600 {
		t.Errorf("total: got %d, want 3600", result.TotalCents)
	}
	wantDates := []string{"2026-03-02", "2026-03-09", "2026-03-16"}
	for i, reservation := range result.Reservations {
		if reservation.Date != wantDates[i] {
			t.Errorf("session %d date: %s", i, reservation.Date)
		}
		if reservation.BatchID != result.BatchID {
			t.Errorf("session %d batch id: %s", i, reservation.BatchID)
		}
		if reservation.TotalCostCents != 1200 {
			t.Errorf("session %d cost: %d", i, reservation.TotalCostCents)
		}
	}

	if got := walletBalance(t, database, memberID); got != 1400 {
		t.Errorf("wallet balance: %d", got)
	}

	activities, err := database.Queries.ListLedgerActivitiesForMember(context.Background(), memberID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("expected one activity for the whole batch, got %d", len(activities))
	}
	var charges []SessionCharge
	if err := json.Unmarshal([]byte(activities[0].Breakdown), &charges); err != nil {
		t.Fatalf("decode breakdown: %v", err)
	}
	if len(charges) != 3 {
		t.Errorf("breakdown entries: %d", len(charges))
	}
}

func TestCreateBatch_ConflictRollsBackWholeBatch(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 5000, nil)
	svc := NewService(database)

	// Occupy part of the last recurrence date so the batch fails after two
	// sessions were already staged.
	if _, err := database.Queries.CreateReservation(context.Background(), appdb.CreateReservationParams{
		CourtID:         courtID,
		Date:            "2026-03-16",
		StartMinutes:    600,
		EndMinutes:      660,
		DurationMinutes: 60,
		Slots:           `["10:00"]`,
		GuestName:       toNullString("Existing"),
		TotalCostCents:  600,
		BatchID:         "pre-existing",
	}); err != nil {
		t.Fatalf("seed conflicting reservation: %v", err)
	}

	_, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		Slots:    clocks(t, "09:00", "10:00"),
		Recurrence: &Recurrence{
			StartDate: mustDate(t, "2026-03-02"),
			EndDate:   mustDate(t, "2026-03-16"),
			Weekdays:  []time.Weekday{time.Monday},
		},
	})

	var conflictErr SlotConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}
	if conflictErr.Date != "2026-03-16" {
		t.Errorf("conflict date: %s", conflictErr.Date)
	}

	if got := countRows(t, database, "reservations"); got != 1 {
		t.Errorf("reservations after rollback: %d", got)
	}
	if got := walletBalance(t, database, memberID); got != 5000 {
		t.Errorf("wallet balance after rollback: %d", got)
	}
	if got := countRows(t, database, "ledger_activities"); got != 0 {
		t.Errorf("ledger activities after rollback: %d", got)
	}
}

func TestCreateBatch_DoubleBookingRejected(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 10000, nil)
	svc := NewService(database)

	first := BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		Date:     mustDate(t, "2026-03-02"),
		Slots:    clocks(t, "09:00", "10:00"),
	}
	if _, err := svc.CreateBatch(context.Background(), first); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// A partial overlap conflicts too.
	second := first
	second.Slots = clocks(t, "10:00", "11:00")
	_, err := svc.CreateBatch(context.Background(), second)
	var conflictErr SlotConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}

	// An adjacent block does not conflict.
	third := first
	third.Slots = clocks(t, "11:00", "12:00")
	if _, err := svc.CreateBatch(context.Background(), third); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
}

func TestCreateBatch_OverdraftSplit(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 800, nil)
	svc := NewService(database)

	result, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:        courtID,
		MemberID:       &memberID,
		Slots:          clocks(t, "09:00"),
		AllowOverdraft: true,
		Recurrence: &Recurrence{
			StartDate: mustDate(t, "2026-03-02"),
			EndDate:   mustDate(t, "2026-03-16"),
			Weekdays:  []time.Weekday{time.Monday},
		},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	// 3 sessions at 600 against a balance of 800: 1000 of overdraft.
	if result.TotalCents != 1800 {
		t.Errorf("total: %d", result.TotalCents)
	}
	if result.OverdraftCents != 1000 {
		t.Errorf("overdraft: %d", result.OverdraftCents)
	}
	if result.NewBalanceCents == nil || *result.NewBalanceCents != -1000 {
		t.Errorf("new balance: %v", result.NewBalanceCents)
	}

	wantPerSession := []int64{333, 333, 334}
	for i, reservation := range result.Reservations {
		if reservation.OverdraftCents != wantPerSession[i] {
			t.Errorf("session %d overdraft: got %d, want %d", i, reservation.OverdraftCents, wantPerSession[i])
		}
	}
}

func TestCreateBatch_InsufficientWithoutOverdraft(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 500, nil)
	svc := NewService(database)

	_, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		Date:     mustDate(t, "2026-03-02"),
		Slots:    clocks(t, "09:00", "10:00"),
	})

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := countRows(t, database, "reservations"); got != 0 {
		t.Errorf("reservations: %d", got)
	}
	if got := walletBalance(t, database, memberID); got != 500 {
		t.Errorf("wallet balance: %d", got)
	}
}

func TestCreateBatch_OverdraftLimitEnforced(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	limit := int64(500)
	memberID := seedMemberWallet(t, database, 0, &limit)
	svc := NewService(database)

	_, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:        courtID,
		MemberID:       &memberID,
		Date:           mustDate(t, "2026-03-02"),
		Slots:          clocks(t, "09:00"),
		AllowOverdraft: true,
	})

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != "wallet" {
		t.Errorf("field: %s", validationErr.Field)
	}
	if got := countRows(t, database, "reservations"); got != 0 {
		t.Errorf("reservations: %d", got)
	}
}

func TestCreateBatch_GuestSkipsWalletAndLedger(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	svc := NewService(database)

	result, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:   courtID,
		GuestName: "Walk-in",
		Date:      mustDate(t, "2026-03-02"),
		Slots:     clocks(t, "09:00"),
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	if result.NewBalanceCents != nil {
		t.Errorf("guest batch carries a balance: %v", result.NewBalanceCents)
	}
	reservation := result.Reservations[0]
	if reservation.TotalCostCents != 600 {
		t.Errorf("cost: %d", reservation.TotalCostCents)
	}
	if reservation.AmountPaidCents != 0 {
		t.Errorf("guest reservation paid: %d", reservation.AmountPaidCents)
	}
	if !reservation.GuestName.Valid || reservation.GuestName.String != "Walk-in" {
		t.Errorf("guest name: %v", reservation.GuestName)
	}
	if got := countRows(t, database, "ledger_activities"); got != 0 {
		t.Errorf("ledger activities: %d", got)
	}
}

func TestCreateBatch_RoleOverridePricing(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 5000, nil)
	svc := NewService(database)

	roleID := juniorRoleID
	result, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		RoleID:   &roleID,
		Date:     mustDate(t, "2026-03-02"),
		Slots:    clocks(t, "09:00", "10:00"),
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if result.TotalCents != 600 {
		t.Errorf("total: got %d, want 600", result.TotalCents)
	}
}

func TestCreateBatch_MissingCourtAndWallet(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	svc := NewService(database)

	memberID := int64(999)
	_, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:  999,
		MemberID: &memberID,
		Date:     mustDate(t, "2026-03-02"),
		Slots:    clocks(t, "09:00"),
	})
	if !errors.Is(err, ErrCourtNotFound) {
		t.Errorf("expected ErrCourtNotFound, got %v", err)
	}

	_, err = svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		Date:     mustDate(t, "2026-03-02"),
		Slots:    clocks(t, "09:00"),
	})
	if !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 5000, nil)
	svc := NewService(database)

	result, err := svc.CreateBatch(context.Background(), BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		Date:     mustDate(t, "2026-03-02"),
		Slots:    clocks(t, "09:00"),
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	reservationID := result.Reservations[0].ID

	if err := svc.Cancel(context.Background(), reservationID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	reservation, err := database.Queries.GetReservationByID(context.Background(), reservationID)
	if err != nil {
		t.Fatalf("reload reservation: %v", err)
	}
	if reservation.Status != appdb.ReservationStatusCancelled {
		t.Errorf("status: %s", reservation.Status)
	}
	// Cost fields stay frozen on cancel.
	if reservation.TotalCostCents != 600 || reservation.AmountPaidCents != 600 {
		t.Errorf("cost fields changed: total %d paid %d", reservation.TotalCostCents, reservation.AmountPaidCents)
	}

	if err := svc.Cancel(context.Background(), reservationID); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("second cancel: %v", err)
	}
	if err := svc.Cancel(context.Background(), 9999); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("cancel missing: %v", err)
	}
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	memberID := seedMemberWallet(t, database, 5000, nil)
	svc := NewService(database)

	request := BookingRequest{
		CourtID:  courtID,
		MemberID: &memberID,
		Date:     mustDate(t, "2026-03-02"),
		Slots:    clocks(t, "09:00"),
	}
	result, err := svc.CreateBatch(context.Background(), request)
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if err := svc.Cancel(context.Background(), result.Reservations[0].ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := svc.CreateBatch(context.Background(), request); err != nil {
		t.Fatalf("rebooking a cancelled slot: %v", err)
	}
}

func TestQuoteForCourt(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database, 60)
	svc := NewService(database)

	total, err := svc.QuoteForCourt(context.Background(), courtID, nil, clocks(t, "09:00", "10:00"), false, false)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if total != 1200 {
		t.Errorf("total: got %d, want 1200", total)
	}

	_, err = svc.QuoteForCourt(context.Background(), courtID, nil, clocks(t, "09:00", "11:00"), false, false)
	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for gap, got %v", err)
	}
}
