package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const jwksRefresh = 10 * time.Minute

var errMissingSubject = errors.New("token missing subject claim")

// sessionClaims are the Clerk session token claims WildNest reads. The email claim is
// only present when the Clerk JWT template adds it.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Email     string `json:"email"`
}

type clerkVerifier struct {
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

func newClerkVerifier(cfg Config) (Verifier, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("clerk JWKS URL is required")
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		RefreshInterval:   jwksRefresh,
		RefreshUnknownKID: true,
		// A failed refresh keeps the previous key set.
		RefreshErrorHandler: func(error) {},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS: %w", err)
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(5 * time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{"RS256"}),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &clerkVerifier{jwks: jwks, parser: jwt.NewParser(opts...)}, nil
}

func (v *clerkVerifier) Verify(_ context.Context, token string) (User, error) {
	var claims sessionClaims
	if _, err := v.parser.ParseWithClaims(token, &claims, v.jwks.Keyfunc); err != nil {
		return User{}, fmt.Errorf("token verification failed: %w", err)
	}
	if claims.Subject == "" {
		return User{}, errMissingSubject
	}

	user := User{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		Email:     claims.Email,
		Token:     token,
	}
	if claims.ExpiresAt != nil {
		user.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return user, nil
}
