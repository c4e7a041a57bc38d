package handlers

import (
	"encoding/json"
	"net/http"

	"finlink-server/src/config"
	db "finlink-server/src/db/sql"
	"finlink-server/src/logger"
	"finlink-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func GetCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value("user").(*models.User)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	}
}

func DeleteUser(cfg *config.Config, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		// The browser session ends here whether or not the deletes land.
		clearSessionCookie(w, cfg)

		if err := db.DeleteUserSessions(r.Context(), pool, userID); err != nil {
			logger.S.Errorf("Failed to delete sessions for user %d: %v", userID, err)
		}

		if err := db.DeleteUser(r.Context(), pool, userID); err != nil {
			logger.S.Errorf("Failed to delete user %d: %v", userID, err)
			http.Error(w, "failed to delete user", http.StatusInternalServerError)
			return
		}

		logger.S.Infof("User %d deleted", userID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "user deleted",
		})
	}
}
