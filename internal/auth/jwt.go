package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified principal behind a connection
type Identity struct {
	UserID         string
	OrganizationID string
}

// Verifier checks a bearer token and fails closed
type Verifier interface {
	Verify(token string) (Identity, error)
}

type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates an HS256 token, returning the embedded identity
func (v *JWTVerifier) Verify(tokenString string) (Identity, error) {
	jwtToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !jwtToken.Valid {
		return Identity{}, errors.New("token invalid")
	}

	claims, ok := jwtToken.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("unexpected claims type")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return Identity{}, errors.New("user_id claim missing")
	}
	orgID, _ := claims["org_id"].(string)

	return Identity{UserID: userID, OrganizationID: orgID}, nil
}

// GenerateToken issues a signed token, used by development seeding and tests
func GenerateToken(secret, userID, orgID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"org_id":  orgID,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
