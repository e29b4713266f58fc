package handler

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/middleware"
	"github.com/yusufkecer/macro-tracker-backend/internal/repository"
	"github.com/yusufkecer/macro-tracker-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetCodeTTL     = 15 * time.Minute
	resetSendTimeout = 30 * time.Second
	forgotMessage    = "if the email exists, a code has been sent"
)

// dummyHash is compared against when no account matches, so a miss costs
// the same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("macrotrack-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[auth] failed to build dummy hash: %v", err)
	}
	return h
})

type AuthHandler struct {
	jwtSecret      string
	tokenTTL       time.Duration
	repo           *repository.AccountRepository
	resetTokenRepo *repository.ResetTokenRepository
	emailService   *service.EmailService
	dispatch       func(func())
}

func NewAuthHandler(
	jwtSecret string,
	tokenTTL time.Duration,
	repo *repository.AccountRepository,
	resetTokenRepo *repository.ResetTokenRepository,
	emailService *service.EmailService,
) *AuthHandler {
	return &AuthHandler{
		jwtSecret:      jwtSecret,
		tokenTTL:       tokenTTL,
		repo:           repo,
		resetTokenRepo: resetTokenRepo,
		emailService:   emailService,
		dispatch:       func(f func()) { go f() },
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	username := strings.TrimSpace(req.Username)
	email := domain.NormalizeEmail(req.Email)

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	accountID, err := h.repo.Create(r.Context(), username, email, string(passwordHash))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusConflict, "username or email already exists")
			return
		}
		log.Printf("[auth] failed to create account %s: %v", username, err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	h.writeToken(w, http.StatusCreated, accountID, username)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := domain.NormalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	if (email == "" && username == "") || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	var (
		account *domain.Account
		err     error
	)
	if email != "" {
		account, err = h.repo.GetByEmail(r.Context(), email)
	} else {
		account, err = h.repo.GetByUsername(r.Context(), username)
	}
	if err != nil {
		log.Printf("[auth] login lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	hash := dummyHash()
	if account != nil {
		hash = []byte(account.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil || account == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.writeToken(w, http.StatusOK, account.ID, account.Username)
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, status int, accountID int64, username string) {
	token, err := middleware.GenerateToken(accountID, username, h.jwtSecret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	writeJSON(w, status, domain.TokenResponse{Token: token, AccountID: accountID, Username: username})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": forgotMessage})
		return
	}

	email := domain.NormalizeEmail(req.Email)
	if email != "" {
		h.dispatch(func() { h.issueResetCode(email) })
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": forgotMessage})
}

// issueResetCode runs detached from the request, so it gets its own deadline.
func (h *AuthHandler) issueResetCode(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), resetSendTimeout)
	defer cancel()

	account, err := h.repo.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("[forgot-password] db error looking up %s: %v", email, err)
		return
	}
	if account == nil {
		return
	}

	if err := h.resetTokenRepo.DeleteByAccountID(ctx, account.ID); err != nil {
		log.Printf("[forgot-password] failed to delete old tokens for account %d: %v", account.ID, err)
	}

	otp, err := generateOTP()
	if err != nil {
		log.Printf("[forgot-password] failed to generate OTP: %v", err)
		return
	}

	expiresAt := time.Now().UTC().Add(resetCodeTTL)
	if err := h.resetTokenRepo.Create(ctx, account.ID, otp, expiresAt); err != nil {
		log.Printf("[forgot-password] failed to save reset token for account %d: %v", account.ID, err)
		return
	}

	if err := h.emailService.SendPasswordReset(ctx, email, otp); err != nil {
		log.Printf("[forgot-password] failed to send reset email to %s: %v", email, err)
		return
	}
	log.Printf("[forgot-password] reset code issued for account %d", account.ID)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	email := domain.NormalizeEmail(req.Email)
	token := strings.TrimSpace(req.Token)

	resetToken, err := h.resetTokenRepo.GetValid(r.Context(), email, token, time.Now().UTC())
	if err != nil {
		log.Printf("[reset-password] token lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to verify token")
		return
	}
	if resetToken == nil {
		if err := h.resetTokenRepo.RecordFailedAttempt(r.Context(), email); err != nil {
			log.Printf("[reset-password] failed to record attempt: %v", err)
		}
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := h.repo.UpdatePassword(r.Context(), resetToken.AccountID, string(passwordHash)); err != nil {
		log.Printf("[reset-password] failed to update password for account %d: %v", resetToken.AccountID, err)
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	if err := h.resetTokenRepo.MarkUsed(r.Context(), resetToken.ID); err != nil {
		log.Printf("[reset-password] failed to mark token %d used: %v", resetToken.ID, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset successful"})
}

var otpSpace = big.NewInt(1000000)

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
