package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// rejoinClaims binds a rejoin credential to one seat in one room.
// Fields must be exported for JSON serialization.
type rejoinClaims struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secretKey []byte
	tokenAge  time.Duration
}

func NewJWTManager(secretKey string, tokenAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		tokenAge:  tokenAge,
	}
}

func (m *JWTManager) Generate(playerID, roomCode string) string {
	claims := rejoinClaims{
		PlayerID: playerID,
		RoomCode: roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenAge)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, _ := token.SignedString(m.secretKey)

	return signedToken
}

func (m *JWTManager) Verify(tokenString string) (string, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &rejoinClaims{}, func(token *jwt.Token) (any, error) {
		// Validate the signing method is what we expect (HMAC)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})

	if err != nil {
		return "", "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(*rejoinClaims); ok && token.Valid {
		return claims.PlayerID, claims.RoomCode, nil
	}

	return "", "", ErrInvalidToken
}
