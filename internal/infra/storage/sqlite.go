package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"mocktrade/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Storage persists accounts, orders and investments in SQLite.
type Storage struct {
	db *gorm.DB
}

// Open creates a SQLite storage instance at path. An empty path uses DefaultPath.
func Open(path string) (*Storage, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
		path = p
	}

	if path != MemoryPath {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if path == MemoryPath {
		// Every new connection would see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.Account{}, &domain.Order{}, &domain.Investment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// DefaultPath resolves the database file path based on OS
func DefaultPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "MockTrade", "data", "mocktrade.db"), nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Account Operations
// ======================================================================================

// EnsureAccount returns the account called name, creating it with funds
// when it does not exist yet.
func (s *Storage) EnsureAccount(ctx context.Context, name string, funds domain.Money) (*domain.Account, error) {
	var acct domain.Account
	err := s.db.WithContext(ctx).First(&acct, "name = ?", name).Error
	if err == nil {
		return &acct, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := domain.NewAccount(name, funds)
	if err := s.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, fmt.Errorf("failed to create account %q: %w", name, err)
	}
	return created, nil
}

// SaveAccount creates or updates an account.
func (s *Storage) SaveAccount(ctx context.Context, acct *domain.Account) error {
	return s.db.WithContext(ctx).Save(acct).Error
}

// ======================================================================================
// Order Operations
// ======================================================================================

// SaveOrder creates or updates an order. New orders get their ID here.
func (s *Storage) SaveOrder(ctx context.Context, order *domain.Order) error {
	return s.db.WithContext(ctx).Save(order).Error
}

// GetOrder retrieves an order by ID
func (s *Storage) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// OpenOrders returns the account's open orders, oldest first.
func (s *Storage) OpenOrders(ctx context.Context, accountID uint) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, domain.OrderStatusOpen).
		Order("id").
		Find(&orders).Error
	return orders, err
}

// ======================================================================================
// Investment Operations
// ======================================================================================

// SaveInvestment creates or updates a position.
func (s *Storage) SaveInvestment(ctx context.Context, inv *domain.Investment) error {
	return s.db.WithContext(ctx).Save(inv).Error
}

// Investments returns every position of the account, open or closed.
func (s *Storage) Investments(ctx context.Context, accountID uint) ([]*domain.Investment, error) {
	var invs []*domain.Investment
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("symbol").
		Find(&invs).Error
	return invs, err
}
