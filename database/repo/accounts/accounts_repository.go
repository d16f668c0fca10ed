package accounts

import (
	"errors"
	"fmt"

	"github.com/wrenlab/folio-backend/database/models"
	"github.com/wrenlab/folio-backend/utils"
	"github.com/wrenlab/folio-backend/utils/crypto"
	"gorm.io/gorm"
)

// ErrUserNotFound 用户不存在错误
var ErrUserNotFound = errors.New("user not found")

// Repository 账户仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的账户仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EnsureAdminUser 确保管理员账号存在
// password 为空时生成随机密码并返回，由调用方打印一次。
func (r *Repository) EnsureAdminUser(username, password string) (string, error) {
	if username == "" {
		username = "admin"
	}

	var count int64
	if err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return "", fmt.Errorf("failed to check admin user existence: %w", err)
	}
	if count > 0 {
		return "", nil
	}

	generated := ""
	if password == "" {
		randomPassword, err := utils.GenerateRandomToken(16)
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password = randomPassword
		generated = randomPassword
	}

	hashedPassword, err := crypto.GenerateFromPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         "admin",
	}
	if err := r.db.Create(user).Error; err != nil {
		return "", fmt.Errorf("failed to create admin user: %w", err)
	}

	return generated, nil
}

// GetUserByUsername 通过用户名获取用户
func (r *Repository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
