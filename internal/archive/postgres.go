package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RoundRecord is the rounds table row.
type RoundRecord struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Prompt      string    `gorm:"not null" json:"prompt"`
	Pick        int       `gorm:"not null" json:"pick"`
	JudgeID     string    `gorm:"size:36;index" json:"judgeID"`
	WinnerID    string    `gorm:"size:36;index" json:"winnerID"`
	Cards       []string  `gorm:"serializer:json" json:"cards"`
	Submissions int       `json:"submissions"`
	DecidedAt   time.Time `gorm:"index" json:"decidedAt"`
}

func (RoundRecord) TableName() string { return "rounds" }

func toRecord(res RoundResult) RoundRecord {
	return RoundRecord{
		ID:          res.ID,
		Prompt:      res.Prompt,
		Pick:        res.Pick,
		JudgeID:     res.JudgeID,
		WinnerID:    res.WinnerID,
		Cards:       res.Cards,
		Submissions: res.Submissions,
		DecidedAt:   res.DecidedAt.UTC(),
	}
}

type PostgresSink struct {
	db  *gorm.DB
	sql *sql.DB
}

// OpenPostgres connects through pgx's database/sql driver and migrates the
// rounds table.
func OpenPostgres(dsn string) (*PostgresSink, error) {
	pgcfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	sqlDB := stdlib.OpenDB(*pgcfg)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	if err := db.AutoMigrate(&RoundRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate rounds: %w", err)
	}
	return &PostgresSink{db: db, sql: sqlDB}, nil
}

func (p *PostgresSink) Record(ctx context.Context, res RoundResult) error {
	rec := toRecord(res)
	return p.db.WithContext(ctx).Create(&rec).Error
}

// Recent returns the newest n rounds, newest first.
func (p *PostgresSink) Recent(ctx context.Context, n int) ([]RoundRecord, error) {
	var out []RoundRecord
	err := p.db.WithContext(ctx).Order("decided_at desc").Limit(n).Find(&out).Error
	return out, err
}

func (p *PostgresSink) Close() error {
	return p.sql.Close()
}
