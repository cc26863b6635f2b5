package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

var _ models.Repository = (*PostgresDB)(nil)

type PostgresDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

func NewPostgresDB(dsn string, logger *logger.Logger) (*PostgresDB, error) {
	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&models.TrackedWallet{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return &PostgresDB{Conn: db, logger: logger}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks the database connection, used by the health endpoint.
func (db *PostgresDB) Ping(ctx context.Context) error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (db *PostgresDB) AddTrackedWallet(ctx context.Context, wallet *models.TrackedWallet) (bool, error) {
	res := db.Conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "wallet_address"}},
			DoNothing: true,
		}).
		Create(wallet)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create tracked wallet: %w", res.Error)
	}

	return res.RowsAffected == 1, nil
}

func (db *PostgresDB) RemoveTrackedWallet(ctx context.Context, chatID, address string) (bool, error) {
	res := db.Conn.WithContext(ctx).
		Where("chat_id = ? AND wallet_address = ?", chatID, address).
		Delete(&models.TrackedWallet{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove tracked wallet: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (db *PostgresDB) GetTrackedWallets(ctx context.Context) ([]*models.TrackedWallet, error) {
	var wallets []*models.TrackedWallet
	if err := db.Conn.WithContext(ctx).Order("id").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to get tracked wallets: %w", err)
	}

	return wallets, nil
}

func (db *PostgresDB) GetTrackedWalletsByChat(ctx context.Context, chatID string) ([]*models.TrackedWallet, error) {
	var wallets []*models.TrackedWallet
	if err := db.Conn.WithContext(ctx).Where("chat_id = ?", chatID).Order("id").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to get tracked wallets by chat: %w", err)
	}

	return wallets, nil
}

func (db *PostgresDB) UpdateLastTxHash(ctx context.Context, chatID, address, txHash string) error {
	if err := db.Conn.WithContext(ctx).Model(&models.TrackedWallet{}).
		Where("chat_id = ? AND wallet_address = ?", chatID, address).
		Update("last_tx_hash", txHash).Error; err != nil {
		return fmt.Errorf("failed to update last tx hash: %w", err)
	}
	return nil
}

func (db *PostgresDB) UpdateLastTxHashByAddress(ctx context.Context, address, txHash string) error {
	if err := db.Conn.WithContext(ctx).Model(&models.TrackedWallet{}).
		Where("wallet_address = ?", address).
		Update("last_tx_hash", txHash).Error; err != nil {
		return fmt.Errorf("failed to update last tx hash by address: %w", err)
	}
	return nil
}

func (db *PostgresDB) CountTrackedWallets(ctx context.Context) (int64, error) {
	var count int64
	if err := db.Conn.WithContext(ctx).Model(&models.TrackedWallet{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tracked wallets: %w", err)
	}
	return count, nil
}
