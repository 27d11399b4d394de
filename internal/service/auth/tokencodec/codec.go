package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultSigningMethod = "HS256"

// Verification failures. Signature is always checked before expiry, so an
// unsigned but unexpired token fails as ErrSignatureInvalid, never passes.
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrSignatureInvalid = errors.New("token signature mismatch")
	ErrExpired          = errors.New("token is expired")
)

type Claims struct {
	jwt.RegisteredClaims
	Kind string `json:"knd"`
}

// Verified is what a successfully checked token carries
type Verified struct {
	UserID    uuid.UUID
	Kind      string
	ExpiresAt time.Time
}

type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string
}

// Codec signs and verifies self-contained bearer tokens.
// Stateless: the signing key is the only state and it never changes.
type Codec struct {
	key []byte
	alg jwt.SigningMethod
}

func New(cfg Config) (*Codec, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method: %s", cfg.Alg)
	}

	return &Codec{
		key: []byte(cfg.SecretKey),
		alg: alg,
	}, nil
}

// Mint produces a signed token carrying the user id, kind, issued-at and expiry
func (c *Codec) Mint(userID uuid.UUID, kind string, ttl time.Duration) (string, error) {
	now := time.Now().Truncate(time.Second)

	token := jwt.NewWithClaims(
		c.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   userID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
			Kind: kind,
		},
	)

	raw, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("error while signing token. Err: %w", err)
	}
	return raw, nil
}

// Verify checks the signature and then the claims of the raw token
func (c *Codec) Verify(raw string) (Verified, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)
	if err != nil {
		return Verified{}, classify(err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Verified{}, fmt.Errorf("%w: bad subject claim", ErrMalformed)
	}

	return Verified{
		UserID:    userID,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ExtractUserID decodes the embedded user id even from an expired token, so
// the refresh flow can resolve whose session to rotate.
// Tampered signatures still fail.
func (c *Codec) ExtractUserID(raw string) (uuid.UUID, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return uuid.Nil, classify(err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject claim", ErrMalformed)
	}
	return userID, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w. Err: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w. Err: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w. Err: %v", ErrMalformed, err)
	}
}
