// internal/db/models.go
package db

import (
	"database/sql"
	"time"
)

const (
	ReservationStatusActive    = "active"
	ReservationStatusCancelled = "cancelled"
)

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Court struct {
	ID                  int64         `json:"id"`
	Name                string        `json:"name"`
	AvailableFrom       string        `json:"available_from"`
	AvailableUntil      string        `json:"available_until"`
	SlotIntervalMinutes int64         `json:"slot_interval_minutes"`
	HeatingCostCents    sql.NullInt64 `json:"heating_cost_cents"`
	LightingCostCents   sql.NullInt64 `json:"lighting_cost_cents"`
	CreatedAt           time.Time     `json:"created_at"`
}

type RateBand struct {
	ID             int64  `json:"id"`
	CourtID        int64  `json:"court_id"`
	FromTime       string `json:"from_time"`
	UntilTime      string `json:"until_time"`
	BasePriceCents int64  `json:"base_price_cents"`
}

type RateBandRolePrice struct {
	ID         int64 `json:"id"`
	RateBandID int64 `json:"rate_band_id"`
	RoleID     int64 `json:"role_id"`
	PriceCents int64 `json:"price_cents"`
}

type Member struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	RoleID    sql.NullInt64 `json:"role_id"`
	CreatedAt time.Time     `json:"created_at"`
}

type Wallet struct {
	ID                  int64         `json:"id"`
	MemberID            int64         `json:"member_id"`
	BalanceCents        int64         `json:"balance_cents"`
	OpeningBalanceCents int64         `json:"opening_balance_cents"`
	OverdraftLimitCents sql.NullInt64 `json:"overdraft_limit_cents"`
	CreatedAt           time.Time     `json:"created_at"`
}

type Reservation struct {
	ID              int64          `json:"id"`
	CourtID         int64          `json:"court_id"`
	Date            string         `json:"date"`
	StartMinutes    int64          `json:"start_minutes"`
	EndMinutes      int64          `json:"end_minutes"`
	DurationMinutes int64          `json:"duration_minutes"`
	Slots           string         `json:"slots"`
	MemberID        sql.NullInt64  `json:"member_id"`
	GuestName       sql.NullString `json:"guest_name"`
	TotalCostCents  int64          `json:"total_cost_cents"`
	AmountPaidCents int64          `json:"amount_paid_cents"`
	OverdraftCents  int64          `json:"overdraft_cents"`
	Heater          bool           `json:"heater"`
	Light           bool           `json:"light"`
	Status          string         `json:"status"`
	BulkGroupName   sql.NullString `json:"bulk_group_name"`
	BatchID         string         `json:"batch_id"`
	CreatedAt       time.Time      `json:"created_at"`
}

type LedgerActivity struct {
	ID         int64     `json:"id"`
	BatchID    string    `json:"batch_id"`
	WalletID   int64     `json:"wallet_id"`
	MemberID   int64     `json:"member_id"`
	TotalCents int64     `json:"total_cents"`
	Breakdown  string    `json:"breakdown"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

// WalletLedgerTotal pairs a wallet with the sum of its ledger charges, for
// balance reconciliation.
type WalletLedgerTotal struct {
	WalletID            int64
	MemberID            int64
	BalanceCents        int64
	OpeningBalanceCents int64
	LedgerTotalCents    int64
}
