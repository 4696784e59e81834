package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Profile is the role-scoped snapshot embedded in a session token.
// Only the fields relevant to the session's role are filled in.
type Profile struct {
	RollNumber   string `json:"rollNumber,omitempty"`
	DepartmentID uint   `json:"departmentId,omitempty"`
	ProgramID    uint   `json:"programId,omitempty"`
	Designation  string `json:"designation,omitempty"`
}

type SessionClaims struct {
	Email   string  `json:"email"`
	Role    string  `json:"role"`
	Profile Profile `json:"profile"`
	jwt.RegisteredClaims
}

func NewSessionToken(secret []byte, accountID, email, role string, profile Profile, exp time.Time) (string, error) {
	claims := SessionClaims{
		Email:   email,
		Role:    role,
		Profile: profile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func SessionClaimsFromToken(tokenStr string, secret []byte) (*SessionClaims, error) {
	var claims SessionClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}
