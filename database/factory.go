package database

import (
	"fmt"
	"log"

	"github.com/wrenlab/folio-backend/config"
	"github.com/wrenlab/folio-backend/database/models"
)

// Factory 数据库工厂 - 负责创建和管理数据库提供者
type Factory struct {
	provider Provider
}

// NewFactory 创建新的数据库工厂
func NewFactory(cfg *config.Config) (*Factory, error) {
	log.Println("Initializing database provider...")

	provider, err := NewGormProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database provider: %w", err)
	}

	log.Printf("Database provider '%s' initialized successfully", provider.Name())

	return &Factory{
		provider: provider,
	}, nil
}

// GetProvider 获取数据库提供者
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// AutoMigrate 迁移全部数据表
func (f *Factory) AutoMigrate() error {
	return f.provider.AutoMigrate(
		&models.StoredObject{},
		&models.ObjectChunk{},
		&models.Post{},
		&models.User{},
	)
}

// Close 关闭数据库连接
func (f *Factory) Close() error {
	if f.provider == nil {
		return nil
	}
	return f.provider.Close()
}
