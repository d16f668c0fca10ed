package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wrenlab/folio-backend/utils"
)

// ErrInvalidToken 令牌无效或过期
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims 解析后的令牌内容
type Claims struct {
	UserID   uint
	Username string
	Role     string
}

// TokenManager 管理后台访问令牌的签发与校验
type TokenManager struct {
	secret    []byte
	expiresIn time.Duration
}

// NewTokenManager 创建令牌管理器
// secret 为空时生成随机密钥，重启后既有令牌全部失效。
func NewTokenManager(secret string, expiresIn time.Duration) (*TokenManager, error) {
	if secret == "" {
		random, err := utils.GenerateRandomToken(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		secret = random
		log.Println("[Warning] jwt_secret not configured, using a random secret; tokens will not survive restarts")
	}

	if expiresIn <= 0 {
		expiresIn = 2 * time.Hour
	}

	return &TokenManager{
		secret:    []byte(secret),
		expiresIn: expiresIn,
	}, nil
}

// GenerateToken 签发访问令牌
func (m *TokenManager) GenerateToken(userID uint, username, role string) (string, time.Time, error) {
	expiry := time.Now().Add(m.expiresIn)
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     role,
		"exp":      expiry.Unix(),
		"iat":      time.Now().Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return token, expiry, nil
}

// ParseToken 校验并解析访问令牌
func (m *TokenManager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	if v, ok := mapClaims["user_id"].(float64); ok {
		claims.UserID = uint(v)
	}
	if v, ok := mapClaims["username"].(string); ok {
		claims.Username = v
	}
	if v, ok := mapClaims["role"].(string); ok {
		claims.Role = v
	}

	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
