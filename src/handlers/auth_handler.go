package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"finlink-server/src/config"
	db "finlink-server/src/db/sql"
	"finlink-server/src/dwolla"
	"finlink-server/src/errs"
	"finlink-server/src/logger"
	"finlink-server/src/models"
	"finlink-server/src/util"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// customerCreator is the slice of the payment-rail client sign-up needs.
type customerCreator interface {
	CreateCustomer(ctx context.Context, profile dwolla.CustomerProfile) (string, error)
}

func SignUp(cfg *config.Config, rail customerCreator, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SignUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.S.Errorf("Failed to decode sign-up request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		if err := validate.Struct(req); err != nil {
			logger.S.Errorf("Sign-up validation failed - Email: %s: %v", req.Email, err)
			http.Error(w, "invalid sign-up fields", http.StatusBadRequest)
			return
		}
		if !util.ValidatePassword(req.Password) {
			logger.S.Errorf("Password validation failed during sign-up - Email: %s", req.Email)
			http.Error(w, "password must be at least 8 characters with uppercase, lowercase, digit, and special character", http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.S.Errorf("Failed to hash password for %s: %v", req.Email, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// The payment-rail customer is part of the user record, so it is
		// created first; without it no bank account can ever be funded.
		customerURL, err := rail.CreateCustomer(r.Context(), dwolla.CustomerProfile{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Address1:    req.Address,
			City:        req.City,
			State:       req.State,
			PostalCode:  req.PostalCode,
			DateOfBirth: req.DateOfBirth,
			SSN:         req.SSN,
		})
		if err != nil {
			logger.S.Errorf("Payment customer creation failed for %s: %v", req.Email, err)
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}

		user, err := db.CreateUser(r.Context(), pool, req, string(hashedPassword), dwolla.CustomerID(customerURL), customerURL)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				logger.S.Errorf("Sign-up failed - email already exists: %s", req.Email)
				http.Error(w, "email already registered", http.StatusConflict)
				return
			}
			// The customer record is now orphaned on the rail side; it is
			// inert without a funding source, so only log it.
			logger.S.Errorf("Failed to create user %s (payment customer %s left unused): %v", req.Email, customerURL, err)
			http.Error(w, errs.Message(err), errs.HTTPStatus(err))
			return
		}

		if err := issueSession(r.Context(), pool, w, cfg, user.ID); err != nil {
			logger.S.Errorf("Failed to issue session for user %d: %v", user.ID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		logger.S.Infof("Successful sign-up - User: %s, ID: %d", user.Email, user.ID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(user)
	}
}

func SignIn(cfg *config.Config, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.S.Errorf("Failed to decode sign-in request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		user, err := db.GetUserByEmail(r.Context(), pool, strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil {
			logger.S.Errorf("Failed to find user during sign-in - Email: %s: %v", req.Email, err)
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
			logger.S.Errorf("Invalid password attempt for %s from IP %s", req.Email, r.RemoteAddr)
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		if err := issueSession(r.Context(), pool, w, cfg, user.ID); err != nil {
			logger.S.Errorf("Failed to issue session for user %d: %v", user.ID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		logger.S.Infof("Successful sign-in - User: %s, ID: %d", user.Email, user.ID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	}
}

func SignOut(cfg *config.Config, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The cookie is cleared no matter what happens server side, so it
		// goes on the response before anything else.
		clearSessionCookie(w, cfg)

		cookie, err := r.Cookie(util.SessionCookieName)
		if err == nil && cookie.Value != "" {
			if err := db.DeleteSession(r.Context(), pool, util.SessionDigest(cookie.Value)); err != nil {
				logger.S.Errorf("Failed to delete session on sign-out: %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "signed out",
		})
	}
}

func issueSession(ctx context.Context, pool *pgxpool.Pool, w http.ResponseWriter, cfg *config.Config, userID int64) error {
	secret, err := util.NewSessionSecret()
	if err != nil {
		return err
	}
	if err := db.CreateSession(ctx, pool, userID, util.SessionDigest(secret), time.Now().Add(cfg.SessionTTL)); err != nil {
		return err
	}
	setSessionCookie(w, cfg, secret)
	return nil
}

func setSessionCookie(w http.ResponseWriter, cfg *config.Config, secret string) {
	http.SetCookie(w, &http.Cookie{
		Name:     util.SessionCookieName,
		Value:    secret,
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg *config.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     util.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
