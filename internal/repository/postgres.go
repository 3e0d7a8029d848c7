package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
)

type PostgresDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

func NewPostgresDB(user, password, dbname, host string, port int, logger *logger.Logger) (models.Repository, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // Use standard logger
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond, // Log queries slower than this
			LogLevel:                  gormLogger.Warn,        // Only log warnings or errors
			IgnoreRecordNotFoundError: true,                   // Suppress "record not found" errors
			Colorful:                  true,                   // Enable colorful logs
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %s", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %s", err)
	}
	if err := Migrate(sqlDB, "postgres", logger); err != nil {
		return nil, err
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return NewRepository(db, logger), nil
}

// NewRepository wraps an already opened gorm connection.
func NewRepository(conn *gorm.DB, logger *logger.Logger) *PostgresDB {
	return &PostgresDB{Conn: conn, logger: logger}
}

func dbError(action string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", action, models.ErrDatabase, err)
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %s", err)
	}
	return sqlDB.Close()
}

// WithTransaction runs fn in a transaction; nested calls run in a savepoint.
// A panic inside fn rolls back and is re-raised.
func (db *PostgresDB) WithTransaction(ctx context.Context, fn func(tx models.Repository) error) error {
	var fnErr error
	err := db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&PostgresDB{Conn: tx, logger: db.logger})
		return fnErr
	})
	if err != nil && fnErr == nil {
		return dbError("run transaction", err)
	}
	return err
}

func (db *PostgresDB) GetUserStatus(ctx context.Context, telegramID int64) (models.UserStatus, error) {
	var row models.UserStatusRow
	if err := db.Conn.WithContext(ctx).Where("telegramid = ?", telegramID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StatusUnregistered, nil
		}
		return models.StatusUnregistered, dbError("get user status", err)
	}
	return row.Status, nil
}

func (db *PostgresDB) SetUserStatus(ctx context.Context, telegramID int64, status models.UserStatus) error {
	row := models.UserStatusRow{TelegramID: telegramID, Status: status}
	err := db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegramid"}},
		DoUpdates: clause.AssignmentColumns([]string{"status"}),
	}).Create(&row).Error
	if err != nil {
		return dbError("set user status", err)
	}
	return nil
}

func (db *PostgresDB) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	if err := db.Conn.WithContext(ctx).Create(wallet).Error; err != nil {
		return dbError("create new wallet", err)
	}
	return nil
}

func (db *PostgresDB) GetWallet(ctx context.Context, telegramID int64) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.Conn.WithContext(ctx).Where("telegramid = ?", telegramID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("wallet of %d: %w", telegramID, models.ErrNotFound)
		}
		return nil, dbError("get wallet", err)
	}
	return &wallet, nil
}

func (db *PostgresDB) LockWallet(ctx context.Context, telegramID int64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.Conn.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("telegramid = ?", telegramID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("wallet of %d: %w", telegramID, models.ErrNotFound)
		}
		return nil, dbError("lock wallet", err)
	}
	return &wallet, nil
}

func (db *PostgresDB) UpdateWallet(ctx context.Context, wallet *models.Wallet) error {
	res := db.Conn.WithContext(ctx).Model(&models.Wallet{}).
		Where("telegramid = ?", wallet.TelegramID).
		Updates(map[string]interface{}{
			"seed":       wallet.Seed,
			"next_index": wallet.NextIndex,
			"keynum":     wallet.KeyNum,
			"hashedkey":  wallet.HashedKey,
			"saltkey":    wallet.SaltKey,
		})
	if res.Error != nil {
		return dbError("update wallet", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("wallet of %d: %w", wallet.TelegramID, models.ErrNotFound)
	}
	return nil
}

func (db *PostgresDB) AddAddress(ctx context.Context, address *models.Address) error {
	if err := db.Conn.WithContext(ctx).Create(address).Error; err != nil {
		return dbError("add address", err)
	}
	return nil
}

func (db *PostgresDB) GetAddress(ctx context.Context, address string) (*models.Address, error) {
	var row models.Address
	if err := db.Conn.WithContext(ctx).Where("address = ?", address).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("address %s: %w", address, models.ErrNotFound)
		}
		return nil, dbError("get address", err)
	}
	return &row, nil
}

func (db *PostgresDB) ListSpendableAddresses(ctx context.Context, telegramID int64) ([]models.Address, error) {
	var addresses []models.Address
	err := db.Conn.WithContext(ctx).
		Where("telegram_sender_id = ? AND used_as_input = ?", telegramID, false).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "index"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "address"}}).
		Find(&addresses).Error
	if err != nil {
		return nil, dbError("list spendable addresses", err)
	}
	return addresses, nil
}

func (db *PostgresDB) UpdateAddressBalance(ctx context.Context, address string, balance int64) error {
	err := db.Conn.WithContext(ctx).Model(&models.Address{}).
		Where("address = ? AND used_as_input = ?", address, false).
		Update("balance", balance).Error
	if err != nil {
		return dbError("update address balance", err)
	}
	return nil
}

func (db *PostgresDB) MarkAddressConsumed(ctx context.Context, address string) error {
	res := db.Conn.WithContext(ctx).Model(&models.Address{}).
		Where("address = ?", address).
		Updates(map[string]interface{}{"balance": 0, "used_as_input": true})
	if res.Error != nil {
		return dbError("mark address consumed", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address %s: %w", address, models.ErrNotFound)
	}
	return nil
}

func (db *PostgresDB) AddTxHistory(ctx context.Context, entry *models.TxHistory) error {
	if err := db.Conn.WithContext(ctx).Create(entry).Error; err != nil {
		return dbError("add tx history", err)
	}
	return nil
}

func (db *PostgresDB) ListTxHistory(ctx context.Context, telegramID int64) ([]models.TxHistory, error) {
	var entries []models.TxHistory
	err := db.Conn.WithContext(ctx).
		Where("telegram_sender_id = ?", telegramID).
		Order("tx_attach_timestamp").
		Find(&entries).Error
	if err != nil {
		return nil, dbError("list tx history", err)
	}
	return entries, nil
}
