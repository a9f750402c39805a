package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// ParseToken validates an HS256 token and reads the actor from its
// user_id and role claims.
func ParseToken(tokenStr string, secret []byte) (Actor, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, ErrInvalidToken
	}

	uid, ok := claims["user_id"].(float64)
	if !ok || uid <= 0 {
		return Actor{}, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)

	return Actor{ID: int64(uid), Role: role}, nil
}

func IssueToken(a Actor, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": a.ID,
		"role":    a.Role,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}
