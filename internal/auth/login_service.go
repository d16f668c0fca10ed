package auth

import (
	"errors"
	"time"

	"github.com/wrenlab/folio-backend/database/repo/accounts"
	"github.com/wrenlab/folio-backend/utils/crypto"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("invalid username or password")

// LoginService 处理后台登录
type LoginService struct {
	accounts *accounts.Repository
	tokens   *TokenManager
}

// NewLoginService 创建登录服务
func NewLoginService(accounts *accounts.Repository, tokens *TokenManager) *LoginService {
	return &LoginService{
		accounts: accounts,
		tokens:   tokens,
	}
}

// LoginResult 登录成功后的令牌信息
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Username  string
	Role      string
}

// Login 校验凭据并签发访问令牌
func (s *LoginService) Login(username, password string) (*LoginResult, error) {
	user, err := s.accounts.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			// 与密码错误返回同一错误，避免暴露用户是否存在
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := crypto.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	token, expiry, err := s.tokens.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiry,
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}
