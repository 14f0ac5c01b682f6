// Package auth verifies bearer tokens issued by the office identity
// provider. Token issuance lives with the provider; this package only
// checks signatures against its published JWKS and extracts the
// dashboard claims.
package auth

import (
	"context"
	goerrors "errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"
	"go.uber.org/zap"

	"github.com/officehub/backend/internal/common/utils"
	"github.com/officehub/backend/internal/domain/errors"
)

// Verifier validates tokens against the identity provider's JWKS.
type Verifier struct {
	jwksURL string
	issuer  string
	log     *zap.Logger

	mu     sync.RWMutex
	keySet jwk.Set
}

// NewVerifier fetches the JWKS eagerly but tolerates a fetch failure;
// the set is retried on the first verification.
func NewVerifier(ctx context.Context, jwksURL, issuer string, log *zap.Logger) *Verifier {
	v := &Verifier{
		jwksURL: jwksURL,
		issuer:  issuer,
		log:     log,
	}

	keySet, err := jwk.Fetch(ctx, jwksURL)
	if err == nil {
		v.keySet = keySet
	} else {
		log.Warn("failed to fetch JWK set, will retry on first token verification",
			zap.String("jwks_url", jwksURL),
			zap.Error(err))
	}
	return v
}

// RefreshKeySet re-fetches the JWKS, picking up provider key rotation.
func (v *Verifier) RefreshKeySet(ctx context.Context) error {
	keySet, err := jwk.Fetch(ctx, v.jwksURL)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.keySet = keySet
	v.mu.Unlock()
	return nil
}

// Verify parses and validates a token and returns its dashboard claims.
// A signature failure triggers one JWKS refresh before giving up, so a
// rotated signing key does not lock users out until the next restart.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*utils.DashboardClaims, error) {
	claims, err := v.parse(tokenString)
	if err != nil {
		if refreshErr := v.RefreshKeySet(ctx); refreshErr != nil {
			v.log.Warn("failed to refresh JWK set", zap.Error(refreshErr))
			return nil, errors.NewAuthenticationError("invalid or expired token")
		}
		claims, err = v.parse(tokenString)
		if err != nil {
			return nil, errors.NewAuthenticationError("invalid or expired token")
		}
	}

	if claims.Issuer != v.issuer {
		v.log.Warn("token issuer mismatch", zap.String("issuer", claims.Issuer))
		return nil, errors.NewAuthenticationError("invalid token issuer")
	}
	return claims, nil
}

func (v *Verifier) parse(tokenString string) (*utils.DashboardClaims, error) {
	return utils.ParseJWT(tokenString, v.keyFunc)
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, goerrors.New("unexpected signing method: " + token.Method.Alg())
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, goerrors.New("key ID not found in token header")
	}

	v.mu.RLock()
	keySet := v.keySet
	v.mu.RUnlock()
	if keySet == nil {
		return nil, goerrors.New("JWK set not available")
	}

	key, found := keySet.LookupKeyID(kid)
	if !found {
		return nil, goerrors.New("no key found for key ID " + kid)
	}

	var rawKey interface{}
	if err := key.Raw(&rawKey); err != nil {
		return nil, err
	}
	return rawKey, nil
}
