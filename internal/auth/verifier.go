package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier validates bearer tokens and resolves them to live accounts.
type Verifier struct {
	secret []byte
	users  repositories.UserRepository
}

// NewVerifier constructs a Verifier over the given signing secret.
func NewVerifier(secret string, users repositories.UserRepository) *Verifier {
	return &Verifier{secret: []byte(secret), users: users}
}

// Authenticate checks the token's signature and expiry and resolves the subject
// to a user. A token whose subject no longer exists fails authentication.
func (v *Verifier) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return models.User{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.User{}, ErrInvalidToken
	}
	subject := subjectFromClaims(claims)
	if subject == "" {
		return models.User{}, ErrInvalidToken
	}
	userID, err := strconv.Atoi(subject)
	if err != nil {
		return models.User{}, ErrInvalidToken
	}

	user, err := v.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
		}
		return models.User{}, err
	}
	return user, nil
}

func subjectFromClaims(claims jwt.MapClaims) string {
	if id, ok := claims["_id"].(string); ok && id != "" {
		return id
	}
	if sub, err := claims.GetSubject(); err == nil {
		return sub
	}
	return ""
}

// TokenFromRequest recovers the handshake credential: explicit token query
// parameter first, then the Authorization header, then the token cookie.
func TokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}
