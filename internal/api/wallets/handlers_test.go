package wallets

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	appdb "github.com/mlgrn/courtbook/internal/db"
	"github.com/mlgrn/courtbook/internal/testutil"
)

func setupWalletTest(t *testing.T) (*appdb.DB, int64, int64) {
	t.Helper()

	database := testutil.NewTestDB(t)
	ctx := context.Background()

	result, err := database.ExecContext(ctx,
		`INSERT INTO members (name) VALUES (?)`, "Alex Martin",
	)
	if err != nil {
		t.Fatalf("insert member: %v", err)
	}
	memberID, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("member id: %v", err)
	}

	result, err = database.ExecContext(ctx,
		`INSERT INTO wallets (member_id, balance_cents, opening_balance_cents) VALUES (?, ?, ?)`,
		memberID, 4200, 5000,
	)
	if err != nil {
		t.Fatalf("insert wallet: %v", err)
	}
	walletID, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("wallet id: %v", err)
	}

	queries = nil
	handlersOnce = sync.Once{}
	InitHandlers(database)

	t.Cleanup(func() {
		queries = nil
		handlersOnce = sync.Once{}
	})

	return database, memberID, walletID
}

func TestHandleWalletGet(t *testing.T) {
	_, memberID, _ := setupWalletTest(t)

	req := httptest.NewRequest(
		http.MethodGet,
		fmt.Sprintf("/api/v1/wallets/%d", memberID),
		nil,
	)
	req.SetPathValue("member_id", fmt.Sprintf("%d", memberID))
	recorder := httptest.NewRecorder()

	HandleWalletGet(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	var wallet appdb.Wallet
	if err := json.NewDecoder(recorder.Body).Decode(&wallet); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if wallet.MemberID != memberID || wallet.BalanceCents != 4200 {
		t.Errorf("wallet: %+v", wallet)
	}
}

func TestHandleWalletGet_NotFound(t *testing.T) {
	setupWalletTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/999", nil)
	req.SetPathValue("member_id", "999")
	recorder := httptest.NewRecorder()

	HandleWalletGet(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleWalletActivities(t *testing.T) {
	database, memberID, walletID := setupWalletTest(t)

	for i, cents := range []int64{700, 500} {
		if _, err := database.ExecContext(context.Background(),
			`INSERT INTO ledger_activities (batch_id, wallet_id, member_id, total_cents, actor)
			 VALUES (?, ?, ?, ?, ?)`,
			fmt.Sprintf("batch-%d", i+1), walletID, memberID, cents, "front-desk",
		); err != nil {
			t.Fatalf("insert activity: %v", err)
		}
	}

	req := httptest.NewRequest(
		http.MethodGet,
		fmt.Sprintf("/api/v1/wallets/%d/activities", memberID),
		nil,
	)
	req.SetPathValue("member_id", fmt.Sprintf("%d", memberID))
	recorder := httptest.NewRecorder()

	HandleWalletActivities(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	var activities []appdb.LedgerActivity
	if err := json.NewDecoder(recorder.Body).Decode(&activities); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("activities: %d", len(activities))
	}
	// Newest first.
	if activities[0].BatchID != "batch-2" {
		t.Errorf("ordering: %s first", activities[0].BatchID)
	}
}

func TestHandleWalletActivities_EmptyHistory(t *testing.T) {
	_, memberID, _ := setupWalletTest(t)

	req := httptest.NewRequest(
		http.MethodGet,
		fmt.Sprintf("/api/v1/wallets/%d/activities", memberID),
		nil,
	)
	req.SetPathValue("member_id", fmt.Sprintf("%d", memberID))
	recorder := httptest.NewRecorder()

	HandleWalletActivities(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
}
