package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/tomz197/invaders/internal/starknet"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ScoreRecord is the best score of one player.
type ScoreRecord struct {
	Player      string `gorm:"primaryKey;size:66"`
	Score       uint32 `gorm:"not null;index"`
	SubmittedAt uint64 `gorm:"not null"`
	UpdatedAt   time.Time
}

// TableName pins the table name.
func (ScoreRecord) TableName() string { return "scores" }

// SQLStore keeps best scores in a SQL table through gorm.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a SQLite database. An empty path selects a
// shared in-memory database.
func OpenSQLite(path string) (*SQLStore, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; one connection avoids "database is locked".
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return NewSQLStore(db)
}

// OpenPostgres connects to PostgreSQL.
func OpenPostgres(dsn string) (*SQLStore, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewSQLStore(db)
}

// NewSQLStore migrates the schema on db and wraps it.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&ScoreRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate scores table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// SubmitScore raises the player's best score. Lower or equal scores leave
// the row untouched.
func (s *SQLStore) SubmitScore(ctx context.Context, player starknet.Address, score uint32, timestamp uint64) (bool, error) {
	if err := checkPlayer(player); err != nil {
		return false, err
	}

	improved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec ScoreRecord
		err := tx.First(&rec, "player = ?", player.String()).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			improved = true
			return tx.Create(&ScoreRecord{Player: player.String(), Score: score, SubmittedAt: timestamp}).Error
		case err != nil:
			return err
		case score <= rec.Score:
			return nil
		}
		improved = true
		return tx.Model(&rec).Updates(map[string]any{"score": score, "submitted_at": timestamp}).Error
	})
	if err != nil {
		return false, fmt.Errorf("submit score: %w", err)
	}
	return improved, nil
}

// TopPlayers returns the n highest scores. Ties go to whoever reached the
// score first.
func (s *SQLStore) TopPlayers(ctx context.Context, n uint32) ([]Entry, error) {
	var recs []ScoreRecord
	err := s.db.WithContext(ctx).
		Order("score DESC").Order("submitted_at ASC").Order("player ASC").
		Limit(int(n)).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(recs))
	for _, r := range recs {
		player, err := starknet.ParseAddress(r.Player)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Player: player, Score: r.Score})
	}
	return entries, nil
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
