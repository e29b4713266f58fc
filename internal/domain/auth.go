package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest identifies the account by username or, when set, by email.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
}

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 6
)

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidEmail is a shape check: a local part, an @ and a dotted domain.
func ValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || strings.Count(email, "@") != 1 {
		return false
	}
	host := email[at+1:]
	dot := strings.LastIndex(host, ".")
	return dot > 0 && dot < len(host)-1 && !strings.ContainsAny(email, " \t")
}

func (r RegisterRequest) Validate() error {
	username := strings.TrimSpace(r.Username)
	switch {
	case username == "" || r.Email == "" || r.Password == "":
		return errors.New("username, email and password are required")
	case len(username) < MinUsernameLength || len(username) > MaxUsernameLength:
		return fmt.Errorf("username must be %d to %d characters", MinUsernameLength, MaxUsernameLength)
	case !ValidEmail(NormalizeEmail(r.Email)):
		return errors.New("invalid email format")
	case len(r.Password) < MinPasswordLength:
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r ResetPasswordRequest) Validate() error {
	switch {
	case NormalizeEmail(r.Email) == "" || strings.TrimSpace(r.Token) == "" || r.Password == "":
		return errors.New("email, token and password are required")
	case len(r.Password) < MinPasswordLength:
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// MaxResetAttempts is how many wrong codes an account may submit before its
// outstanding reset codes stop working.
const MaxResetAttempts = 5

// PasswordResetToken is a single-use 6-digit code mailed to the account.
type PasswordResetToken struct {
	ID        int64
	AccountID int64
	Token     string
	ExpiresAt time.Time
	Used      bool
	Attempts  int
}

// Usable reports whether the code may still be redeemed at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t != nil && !t.Used && t.Attempts < MaxResetAttempts && t.ExpiresAt.After(now)
}
