package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
	"github.com/amezhin/eduseek/internal/service/auth/tokencodec"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	// Minimal allowed password length
	MinPasswordLen = 8

	bearerScheme = "Bearer "
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Secret key to sign token payloads
	// Required to be set
	SecretKey string

	// JWT MAC algorithm, codec default is used when empty
	Alg string

	// Hasher to use during registration and login
	// Defaults to bcrypt
	Hasher PasswordHasher

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// RotateRefresh makes Refresh mint a fresh refresh token too.
	// Off by default: the session keeps a single refresh token for its
	// whole lifetime, so refresh responses return the supplied one.
	RotateRefresh bool
}

// Service drives register, login, refresh and logout, and makes the
// per-request trust decision for the gatekeeper middleware.
//
// Rotation invariant: at most one access token per user is usable at any
// instant. Every read-usable, revoke, insert sequence runs in a single db
// transaction behind a `FOR UPDATE` lock on the user row, so two racing
// logins serialize and cannot leave two usable rows.
type Service struct {
	codec   *tokencodec.Codec
	hasher  PasswordHasher
	storage repository.Storage

	accessTTL     time.Duration
	refreshTTL    time.Duration
	rotateRefresh bool
}

func NewService(cfg Config, storage repository.Storage) (*Service, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	codec, err := tokencodec.New(tokencodec.Config{SecretKey: cfg.SecretKey, Alg: cfg.Alg})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTokenTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTokenTTL, defaultRefreshTokenTTL)

	return &Service{
		codec:         codec,
		hasher:        hasher,
		storage:       storage,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		rotateRefresh: cfg.RotateRefresh,
	}, nil
}

type RegisterParams struct {
	FirstName        string
	LastName         string
	Email            string
	Username         string
	Password         string
	RepeatedPassword string
}

func (s *Service) Register(ctx context.Context, p RegisterParams) (models.TokenPair, error) {
	var pair models.TokenPair

	if p.Password != p.RepeatedPassword {
		return pair, apperrors.BadRequest("Passwords do not match")
	}
	if len(p.Password) < MinPasswordLen {
		return pair, apperrors.BadRequest(fmt.Sprintf("Password must be at least %d characters long", MinPasswordLen))
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return pair, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err := store.User().CreateUser(ctx, repository.CreateUserParams{
			FirstName:      p.FirstName,
			LastName:       p.LastName,
			Email:          p.Email,
			Username:       p.Username,
			HashedPassword: hash,
			Role:           models.RoleUser,
			Enabled:        true,
		})
		switch {
		case errors.Is(err, apperrors.ErrEmailTaken):
			return apperrors.Wrap(apperrors.KindConflict, "Email already taken", err)
		case errors.Is(err, apperrors.ErrUsernameTaken):
			return apperrors.Wrap(apperrors.KindConflict, "Username already taken", err)
		case err != nil:
			return err
		}

		pair, err = s.issuePair(ctx, store, user.ID)
		return err
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

func (s *Service) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return pair, apperrors.Wrap(apperrors.KindUnauthorized, "Invalid email or password", err)
	case err != nil:
		return pair, err
	}

	if !user.Enabled {
		return pair, apperrors.AccessDenied("User is disabled")
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return pair, apperrors.Wrap(apperrors.KindUnauthorized, "Invalid email or password", err)
	}

	// Supersede the previous session and issue a new one atomically
	err = s.storage.InTx(ctx, func(store repository.Storage) error {
		if err := s.revokeUsableAccess(ctx, store, user.ID); err != nil {
			return err
		}

		pair, err = s.issuePair(ctx, store, user.ID)
		return err
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Refresh reissues the access token for the session the refresh token
// belongs to. The refresh token itself is returned unchanged unless the
// service is configured to rotate it.
func (s *Service) Refresh(ctx context.Context, authorization string) (models.TokenPair, error) {
	var pair models.TokenPair

	raw, ok := bearerToken(authorization)
	if !ok {
		return pair, apperrors.Unauthorized("Refresh token is missing")
	}

	// Learn whose session it is first: extraction tolerates expired
	// claims, so the error messages below never depend on timing
	userID, err := s.codec.ExtractUserID(raw)
	if err != nil {
		return pair, apperrors.Wrap(apperrors.KindUnauthorized, "Invalid refresh token", err)
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return pair, apperrors.Wrap(apperrors.KindUnauthorized, "Invalid refresh token", err)
	case err != nil:
		return pair, err
	}

	verified, err := s.codec.Verify(raw)
	if err != nil {
		return pair, apperrors.Wrap(apperrors.KindUnauthorized, "Invalid refresh token", err)
	}
	if verified.Kind != models.TokenKindRefresh || verified.UserID != user.ID {
		return pair, apperrors.Unauthorized("Invalid refresh token")
	}

	err = s.storage.InTx(ctx, func(store repository.Storage) error {
		if err := s.revokeUsableAccess(ctx, store, user.ID); err != nil {
			return err
		}

		access, err := s.mintAccess(ctx, store, user.ID)
		if err != nil {
			return err
		}

		refresh := models.IssuedToken{Value: raw, ExpiresAt: verified.ExpiresAt}
		if s.rotateRefresh {
			refresh, err = s.mintRefresh(user.ID)
			if err != nil {
				return err
			}
		}

		pair = models.TokenPair{Access: access, Refresh: refresh}
		return nil
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout marks the presented token's ledger row revoked and expired.
// Idempotent: a missing or already dead token is a no-op, not an error.
func (s *Service) Logout(ctx context.Context, authorization string) error {
	raw, ok := bearerToken(authorization)
	if !ok {
		return nil
	}

	token, err := s.storage.Token().GetByValue(ctx, raw)
	switch {
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return nil
	case err != nil:
		return err
	}

	if !token.Usable() {
		return nil
	}

	_, err = s.storage.Token().RevokeByIDs(ctx, []uuid.UUID{token.ID})
	return err
}

// Identify is the gatekeeper's trust decision: signature, expiry, kind and
// the ledger must all agree before a request carries an identity. Any
// returned error means "treat as anonymous", never "reject the request".
func (s *Service) Identify(ctx context.Context, r *http.Request) (models.User, error) {
	var user models.User

	raw, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return user, apperrors.Unauthorized("No bearer token")
	}

	userID, err := s.codec.ExtractUserID(raw)
	if err != nil {
		return user, err
	}

	user, err = s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	verified, err := s.codec.Verify(raw)
	if err != nil {
		return models.User{}, err
	}
	if verified.Kind != models.TokenKindAccess || verified.UserID != user.ID {
		return models.User{}, apperrors.Unauthorized("Not an access token")
	}

	// The ledger always wins over the signature
	token, err := s.storage.Token().GetByValue(ctx, raw)
	if err != nil {
		return models.User{}, err
	}
	if !token.Usable() || token.UserID != user.ID {
		return models.User{}, apperrors.Unauthorized("Token is revoked or expired")
	}

	return user, nil
}

func (s *Service) issuePair(ctx context.Context, store repository.Storage, userID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := s.mintAccess(ctx, store, userID)
	if err != nil {
		return pair, err
	}

	refresh, err := s.mintRefresh(userID)
	if err != nil {
		return pair, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// mintAccess mints an access token and records it in the ledger.
// Only access tokens get ledger rows: a refresh token is self contained
// and is invalidated by its signature expiry alone.
func (s *Service) mintAccess(ctx context.Context, store repository.Storage, userID uuid.UUID) (models.IssuedToken, error) {
	var issued models.IssuedToken

	now := time.Now().Truncate(time.Second)
	raw, err := s.codec.Mint(userID, models.TokenKindAccess, s.accessTTL)
	if err != nil {
		return issued, fmt.Errorf("error while minting access token. Err: %w", err)
	}

	_, err = store.Token().Save(ctx, models.Token{
		ID:        uuid.New(),
		UserID:    userID,
		Value:     raw,
		Kind:      models.TokenKindAccess,
		CreatedAt: now,
	})
	if err != nil {
		return issued, fmt.Errorf("error while saving access token. Err: %w", err)
	}

	return models.IssuedToken{Value: raw, ExpiresAt: now.Add(s.accessTTL)}, nil
}

func (s *Service) mintRefresh(userID uuid.UUID) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	raw, err := s.codec.Mint(userID, models.TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while minting refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: raw, ExpiresAt: now.Add(s.refreshTTL)}, nil
}

// revokeUsableAccess supersedes every usable access row of the user.
// Takes the user row lock first, so concurrent rotations for one user
// serialize instead of each inserting its own usable row.
func (s *Service) revokeUsableAccess(ctx context.Context, store repository.Storage, userID uuid.UUID) error {
	if err := store.User().LockByID(ctx, userID); err != nil {
		return err
	}

	usable, err := store.Token().ListUsable(ctx, userID, models.TokenKindAccess)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(usable))
	for _, t := range usable {
		ids = append(ids, t.ID)
	}

	_, err = store.Token().RevokeByIDs(ctx, ids)
	return err
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerScheme) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerScheme))
	return token, token != ""
}
