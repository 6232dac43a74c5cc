// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const courtColumns = `id, name, available_from, available_until, slot_interval_minutes, heating_cost_cents, lighting_cost_cents, created_at`

func scanCourt(row interface{ Scan(...any) error }) (Court, error) {
	var c Court
	err := row.Scan(&c.ID, &c.Name, &c.AvailableFrom, &c.AvailableUntil, &c.SlotIntervalMinutes, &c.HeatingCostCents, &c.LightingCostCents, &c.CreatedAt)
	return c, err
}

func (q *Queries) GetCourtByID(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+courtColumns+` FROM courts WHERE id = ?`, id)
	return scanCourt(row)
}

func (q *Queries) ListCourts(ctx context.Context) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+courtColumns+` FROM courts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		court, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		courts = append(courts, court)
	}
	return courts, rows.Err()
}

func (q *Queries) ListRateBandsForCourt(ctx context.Context, courtID int64) ([]RateBand, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, court_id, from_time, until_time, base_price_cents FROM rate_bands WHERE court_id = ? ORDER BY from_time`,
		courtID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bands []RateBand
	for rows.Next() {
		var band RateBand
		if err := rows.Scan(&band.ID, &band.CourtID, &band.FromTime, &band.UntilTime, &band.BasePriceCents); err != nil {
			return nil, err
		}
		bands = append(bands, band)
	}
	return bands, rows.Err()
}

func (q *Queries) ListRolePricesForCourt(ctx context.Context, courtID int64) ([]RateBandRolePrice, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT p.id, p.rate_band_id, p.role_id, p.price_cents
		 FROM rate_band_role_prices p
		 JOIN rate_bands b ON b.id = p.rate_band_id
		 WHERE b.court_id = ?
		 ORDER BY p.rate_band_id, p.role_id`,
		courtID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []RateBandRolePrice
	for rows.Next() {
		var price RateBandRolePrice
		if err := rows.Scan(&price.ID, &price.RateBandID, &price.RoleID, &price.PriceCents); err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

func (q *Queries) GetMemberByID(ctx context.Context, id int64) (Member, error) {
	var m Member
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, role_id, created_at FROM members WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.RoleID, &m.CreatedAt)
	return m, err
}

const walletColumns = `id, member_id, balance_cents, opening_balance_cents, overdraft_limit_cents, created_at`

func (q *Queries) GetWalletByMemberID(ctx context.Context, memberID int64) (Wallet, error) {
	var w Wallet
	err := q.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE member_id = ?`, memberID,
	).Scan(&w.ID, &w.MemberID, &w.BalanceCents, &w.OpeningBalanceCents, &w.OverdraftLimitCents, &w.CreatedAt)
	return w, err
}

type UpdateWalletBalanceParams struct {
	WalletID     int64
	BalanceCents int64
}

func (q *Queries) UpdateWalletBalance(ctx context.Context, params UpdateWalletBalanceParams) (Wallet, error) {
	if _, err := q.db.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = ? WHERE id = ?`,
		params.BalanceCents, params.WalletID,
	); err != nil {
		return Wallet{}, err
	}

	var w Wallet
	err := q.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = ?`, params.WalletID,
	).Scan(&w.ID, &w.MemberID, &w.BalanceCents, &w.OpeningBalanceCents, &w.OverdraftLimitCents, &w.CreatedAt)
	return w, err
}

type CreateReservationParams struct {
	CourtID         int64
	Date            string
	StartMinutes    int64
	EndMinutes      int64
	DurationMinutes int64
	Slots           string
	MemberID        sql.NullInt64
	GuestName       sql.NullString
	TotalCostCents  int64
	AmountPaidCents int64
	OverdraftCents  int64
	Heater          bool
	Light           bool
	BulkGroupName   sql.NullString
	BatchID         string
}

const reservationColumns = `id, court_id, date, start_minutes, end_minutes, duration_minutes, slots, member_id, guest_name, total_cost_cents, amount_paid_cents, overdraft_cents, heater, light, status, bulk_group_name, batch_id, created_at`

func scanReservation(row interface{ Scan(...any) error }) (Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID, &r.CourtID, &r.Date, &r.StartMinutes, &r.EndMinutes, &r.DurationMinutes,
		&r.Slots, &r.MemberID, &r.GuestName, &r.TotalCostCents, &r.AmountPaidCents,
		&r.OverdraftCents, &r.Heater, &r.Light, &r.Status, &r.BulkGroupName,
		&r.BatchID, &r.CreatedAt,
	)
	return r, err
}

func (q *Queries) CreateReservation(ctx context.Context, params CreateReservationParams) (Reservation, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO reservations (
			court_id, date, start_minutes, end_minutes, duration_minutes, slots,
			member_id, guest_name, total_cost_cents, amount_paid_cents, overdraft_cents,
			heater, light, bulk_group_name, batch_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.CourtID, params.Date, params.StartMinutes, params.EndMinutes,
		params.DurationMinutes, params.Slots, params.MemberID, params.GuestName,
		params.TotalCostCents, params.AmountPaidCents, params.OverdraftCents,
		params.Heater, params.Light, params.BulkGroupName, params.BatchID,
	)
	if err != nil {
		return Reservation{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Reservation{}, err
	}
	return q.GetReservationByID(ctx, id)
}

func (q *Queries) GetReservationByID(ctx context.Context, id int64) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

type CountOverlappingReservationsParams struct {
	CourtID      int64
	Date         string
	StartMinutes int64
	EndMinutes   int64
}

// CountOverlappingReservations counts active reservations on the same court
// and date whose time range intersects [StartMinutes, EndMinutes).
func (q *Queries) CountOverlappingReservations(ctx context.Context, params CountOverlappingReservationsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE court_id = ? AND date = ? AND status = 'active'
		   AND start_minutes < ? AND end_minutes > ?`,
		params.CourtID, params.Date, params.EndMinutes, params.StartMinutes,
	).Scan(&count)
	return count, err
}

type ListReservationsByCourtDateParams struct {
	CourtID int64
	Date    string
}

func (q *Queries) ListReservationsByCourtDate(ctx context.Context, params ListReservationsByCourtDateParams) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE court_id = ? AND date = ? AND status = 'active'
		 ORDER BY start_minutes`,
		params.CourtID, params.Date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

// CancelReservation flips an active reservation to cancelled. Cost fields
// are never touched; corrections are new ledger entries.
func (q *Queries) CancelReservation(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE reservations SET status = 'cancelled' WHERE id = ? AND status = 'active'`, id,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type CreateLedgerActivityParams struct {
	BatchID    string
	WalletID   int64
	MemberID   int64
	TotalCents int64
	Breakdown  string
	Actor      string
}

func (q *Queries) CreateLedgerActivity(ctx context.Context, params CreateLedgerActivityParams) (LedgerActivity, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO ledger_activities (batch_id, wallet_id, member_id, total_cents, breakdown, actor)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		params.BatchID, params.WalletID, params.MemberID, params.TotalCents, params.Breakdown, params.Actor,
	)
	if err != nil {
		return LedgerActivity{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return LedgerActivity{}, err
	}

	var a LedgerActivity
	err = q.db.QueryRowContext(ctx,
		`SELECT id, batch_id, wallet_id, member_id, total_cents, breakdown, actor, created_at
		 FROM ledger_activities WHERE id = ?`, id,
	).Scan(&a.ID, &a.BatchID, &a.WalletID, &a.MemberID, &a.TotalCents, &a.Breakdown, &a.Actor, &a.CreatedAt)
	return a, err
}

func (q *Queries) ListLedgerActivitiesForMember(ctx context.Context, memberID int64) ([]LedgerActivity, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, batch_id, wallet_id, member_id, total_cents, breakdown, actor, created_at
		 FROM ledger_activities WHERE member_id = ? ORDER BY created_at DESC, id DESC`,
		memberID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []LedgerActivity
	for rows.Next() {
		var a LedgerActivity
		if err := rows.Scan(&a.ID, &a.BatchID, &a.WalletID, &a.MemberID, &a.TotalCents, &a.Breakdown, &a.Actor, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListWalletLedgerTotals joins every wallet with the sum of its ledger
// charges. Used by the nightly reconciliation job.
func (q *Queries) ListWalletLedgerTotals(ctx context.Context) ([]WalletLedgerTotal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT w.id, w.member_id, w.balance_cents, w.opening_balance_cents,
		        COALESCE(SUM(a.total_cents), 0)
		 FROM wallets w
		 LEFT JOIN ledger_activities a ON a.wallet_id = w.id
		 GROUP BY w.id
		 ORDER BY w.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []WalletLedgerTotal
	for rows.Next() {
		var t WalletLedgerTotal
		if err := rows.Scan(&t.WalletID, &t.MemberID, &t.BalanceCents, &t.OpeningBalanceCents, &t.LedgerTotalCents); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
