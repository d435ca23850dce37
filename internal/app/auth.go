package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/security"
	"studyhub/pkg/auth"
	"studyhub/pkg/domain"
)

// SignUpInput carries the registration fields.
type SignUpInput struct {
	Email     string
	Password  string
	Name      string
	StudentID string
	Program   string
	Year      string
}

// SignUp registers a new user. The email must belong to the institutional
// domain; that check runs before any storage access.
func (a *App) SignUp(in SignUpInput) (domain.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	if !security.ValidEmail(email) {
		return domain.User{}, "", ErrInvalidEmail
	}
	if !security.ValidInstitutionalEmail(email, a.emailDomain) {
		return domain.User{}, "", ErrEmailNotInstitutional
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.User{}, "", err
	}
	name := security.SanitizeText(strings.TrimSpace(in.Name))
	if !security.ValidName(name) {
		return domain.User{}, "", ErrInvalidName
	}

	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		StudentID:    security.SanitizeText(strings.TrimSpace(in.StudentID)),
		Program:      security.SanitizeText(strings.TrimSpace(in.Program)),
		Year:         security.SanitizeText(strings.TrimSpace(in.Year)),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("get user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

// Logout revokes the session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves a session token to its user.
func (a *App) UserFromToken(token string) (domain.User, bool, error) {
	if strings.TrimSpace(token) == "" {
		return domain.User{}, false, nil
	}
	userID, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("resolve session: %w", err)
	}
	if !ok {
		return domain.User{}, false, nil
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return user, ok, nil
}

// RequestPasswordReset acknowledges a reset request. The response is
// identical whether or not the email is registered, so the endpoint
// cannot be used to enumerate accounts.
func (a *App) RequestPasswordReset(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !security.ValidEmail(email) {
		return ErrInvalidEmail
	}
	if !security.ValidInstitutionalEmail(email, a.emailDomain) {
		return ErrEmailNotInstitutional
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		slog.Error("password reset lookup failed", "error", err)
		return nil
	}
	// Delivery of the reset mail is out of band; registered or not, the
	// caller sees the same acknowledgement.
	slog.Info("password reset requested", "registered", exists)
	return nil
}

// ChangePassword rotates the user's password after verifying the current one.
func (a *App) ChangePassword(userID, current, next string) error {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	return a.store.SaveUser(user)
}

// ProfileInput carries updatable profile fields. Nil pointers leave the
// existing value untouched.
type ProfileInput struct {
	Name      *string
	StudentID *string
	Program   *string
	Year      *string
}

// UpdateProfile edits the user's profile fields.
func (a *App) UpdateProfile(userID string, in ProfileInput) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	if in.Name != nil {
		name := security.SanitizeText(strings.TrimSpace(*in.Name))
		if !security.ValidName(name) {
			return domain.User{}, ErrInvalidName
		}
		user.Name = name
	}
	if in.StudentID != nil {
		user.StudentID = security.SanitizeText(strings.TrimSpace(*in.StudentID))
	}
	if in.Program != nil {
		user.Program = security.SanitizeText(strings.TrimSpace(*in.Program))
	}
	if in.Year != nil {
		user.Year = security.SanitizeText(strings.TrimSpace(*in.Year))
	}
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}
