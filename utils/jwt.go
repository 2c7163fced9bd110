package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	accessIssuer  = "splendor-access"
	refreshIssuer = "splendor-refresh"
)

type Claims struct {
	PlayerID string `json:"player_id"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发和校验会话 token，access 和 refresh 使用不同密钥
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

func (t *TokenIssuer) GenerateAccessToken(playerID string) (string, error) {
	return generate(playerID, accessIssuer, t.AccessTTL, t.accessSecret)
}

func (t *TokenIssuer) GenerateRefreshToken(playerID string) (string, error) {
	return generate(playerID, refreshIssuer, t.RefreshTTL, t.refreshSecret)
}

func (t *TokenIssuer) ParseAccessToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, accessIssuer, t.accessSecret)
}

func (t *TokenIssuer) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, refreshIssuer, t.refreshSecret)
}

func generate(playerID, issuer string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenStr, issuer string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Issuer != issuer || claims.PlayerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
