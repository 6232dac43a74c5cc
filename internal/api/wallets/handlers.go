// internal/api/wallets/handlers.go
package wallets

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mlgrn/courtbook/internal/api/apiutil"
	appdb "github.com/mlgrn/courtbook/internal/db"
)

var (
	queries      *appdb.Queries
	handlersOnce sync.Once
)

const walletQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	handlersOnce.Do(func() {
		queries = database.Queries
	})
}

// GET /api/v1/wallets/{member_id}
func HandleWalletGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	memberID, err := apiutil.IDFromPath(r, "member_id")
	if err != nil {
		http.Error(w, "Invalid member ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), walletQueryTimeout)
	defer cancel()

	wallet, err := queries.GetWalletByMemberID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Wallet not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("member_id", memberID).Msg("Failed to load wallet")
		http.Error(w, "Failed to load wallet", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, wallet); err != nil {
		logger.Error().Err(err).Int64("member_id", memberID).Msg("Failed to write wallet response")
		return
	}
}

// GET /api/v1/wallets/{member_id}/activities
func HandleWalletActivities(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	memberID, err := apiutil.IDFromPath(r, "member_id")
	if err != nil {
		http.Error(w, "Invalid member ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), walletQueryTimeout)
	defer cancel()

	activities, err := queries.ListLedgerActivitiesForMember(ctx, memberID)
	if err != nil {
		logger.Error().Err(err).Int64("member_id", memberID).Msg("Failed to list ledger activities")
		http.Error(w, "Failed to list ledger activities", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, activities); err != nil {
		logger.Error().Err(err).Int64("member_id", memberID).Msg("Failed to write ledger activity response")
		return
	}
}
