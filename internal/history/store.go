package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket/internal/core"
)

// UserQuery is the persisted form of one processed request
type UserQuery struct {
	ID         string  `gorm:"primaryKey;size:36"`
	Phone      string  `gorm:"size:32;index"`
	RawInput   string  `gorm:"type:text"`
	TotalKgCO2 float64 `gorm:"column:total_kg_co2"`
	Breakdown  string  `gorm:"type:text"`
	CreatedAt  time.Time
}

// TableName maps the model onto the user_queries table
func (UserQuery) TableName() string {
	return "user_queries"
}

// Store persists query history in PostgreSQL
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore opens the database and migrates the history table
func NewStore(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if err := db.AutoMigrate(&UserQuery{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	logger.Info("Connected to query history database")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// SaveQuery inserts one history row
func (s *Store) SaveQuery(ctx context.Context, record *core.QueryRecord) error {
	row := rowFromRecord(record)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to save query history: %w", err)
	}

	s.logger.Debug("Saved query history",
		zap.String("id", row.ID),
		zap.Float64("total_kg_co2e", row.TotalKgCO2))

	return nil
}

// Recent returns the latest rows for one sender, newest first
func (s *Store) Recent(ctx context.Context, phone string, limit int) ([]core.QueryRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []UserQuery
	err := s.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load query history: %w", err)
	}

	records := make([]core.QueryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, core.QueryRecord{
			ID:          row.ID,
			Phone:       row.Phone,
			RawInput:    row.RawInput,
			TotalKgCO2e: row.TotalKgCO2,
			Breakdown:   row.Breakdown,
			CreatedAt:   row.CreatedAt,
		})
	}
	return records, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access history database handle: %w", err)
	}
	return sqlDB.Close()
}

func rowFromRecord(record *core.QueryRecord) *UserQuery {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &UserQuery{
		ID:         record.ID,
		Phone:      record.Phone,
		RawInput:   record.RawInput,
		TotalKgCO2: record.TotalKgCO2e,
		Breakdown:  record.Breakdown,
		CreatedAt:  createdAt,
	}
}
