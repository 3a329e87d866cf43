package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issue signs a session token carrying the user id and role.
func Issue(secret string, userID int64, role string, ttlHours int) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Duration(ttlHours) * time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// IssuePickup signs the opaque payload embedded in a reservation's pickup
// QR code. The desk scanner only needs the reservation id and number back,
// so the token is the whole wire format.
func IssuePickup(secret string, reservationID uuid.UUID, number string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": reservationID.String(),
		"rn":  number,
		"typ": "pickup",
		"exp": time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParsePickup verifies a scanned pickup token and returns the reservation it
// points at.
func ParsePickup(secret, token string) (uuid.UUID, string, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return uuid.Nil, "", err
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return uuid.Nil, "", errors.New("invalid token")
	}
	if typ, _ := mc["typ"].(string); typ != "pickup" {
		return uuid.Nil, "", errors.New("not a pickup token")
	}
	sub, _ := mc["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", errors.New("malformed reservation id")
	}
	number, _ := mc["rn"].(string)
	return id, number, nil
}
