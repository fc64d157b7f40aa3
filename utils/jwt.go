package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims carried by identity provider tokens
type Identity struct {
	UserID string
	Role   string
}

// GenerateJWT signs an HS256 token with the same claims the identity provider
// issues. Used by local tooling and tests.
func GenerateJWT(identity Identity, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": identity.UserID,
		"role":    identity.Role,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func DecodeJWT(tokenString string, secret []byte) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signature method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid or expired token")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return Identity{}, fmt.Errorf("token has no user_id claim")
	}
	role, _ := claims["role"].(string)

	return Identity{UserID: userID, Role: role}, nil
}
