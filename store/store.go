// Package store persists trade and risk history by consuming the trading
// event stream. It is a sink: failures are logged and never reach the
// trading thread.
package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/evdnx/goicc/event"
	"github.com/evdnx/goicc/logger"
)

// TradeRecord is one closed trade.
type TradeRecord struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"index"`
	Side       string
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	Reason     string
	DailyPnL   float64
	ClosedAt   time.Time
}

// RiskEventRecord captures kill-switch trips and entry vetoes.
type RiskEventRecord struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	Kind      string
	Detail    string
	DailyPnL  float64
	CreatedAt time.Time
}

// SessionRecord tracks one trading session's lifetime and outcome.
type SessionRecord struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"uniqueIndex"`
	StartedAt  time.Time
	StoppedAt  *time.Time
	TotalPnL   float64
	TradeCount int
}

// Store wraps the gorm handle.
type Store struct {
	db  *gorm.DB
	log logger.Logger
}

// Open creates (or opens) the sqlite database at path and migrates the
// schema. Use ":memory:" for tests.
func Open(path string, log logger.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open trade store: %w", err)
	}
	if err := db.AutoMigrate(&TradeRecord{}, &RiskEventRecord{}, &SessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate trade store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// StartSession inserts a session row.
func (s *Store) StartSession(sessionID string) error {
	return s.db.Create(&SessionRecord{SessionID: sessionID, StartedAt: time.Now().UTC()}).Error
}

// CloseSession stamps the end time and final tallies.
func (s *Store) CloseSession(sessionID string, totalPnL float64, tradeCount int) error {
	now := time.Now().UTC()
	return s.db.Model(&SessionRecord{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{
			"stopped_at":  &now,
			"total_pn_l":  totalPnL,
			"trade_count": tradeCount,
		}).Error
}

// Consume persists one trading event. Unhandled event kinds are ignored.
func (s *Store) Consume(sessionID string, ev event.Event) {
	var err error
	switch ev.Type {
	case event.ExitEvent:
		rec := TradeRecord{
			SessionID:  sessionID,
			Side:       str(ev.Data["side"]),
			EntryPrice: f64(ev.Data["entry_price"]),
			ExitPrice:  f64(ev.Data["exit_price"]),
			PnL:        f64(ev.Data["pnl"]),
			Reason:     str(ev.Data["reason"]),
			DailyPnL:   f64(ev.Data["daily_pnl"]),
			ClosedAt:   ev.Timestamp,
		}
		err = s.db.Create(&rec).Error
	case event.KillSwitch:
		err = s.db.Create(&RiskEventRecord{
			SessionID: sessionID,
			Kind:      string(ev.Type),
			DailyPnL:  f64(ev.Data["daily_pnl"]),
			CreatedAt: ev.Timestamp,
		}).Error
	case event.RiskVeto:
		err = s.db.Create(&RiskEventRecord{
			SessionID: sessionID,
			Kind:      string(ev.Type),
			Detail:    str(ev.Data["reason"]),
			CreatedAt: ev.Timestamp,
		}).Error
	}
	if err != nil && s.log != nil {
		s.log.Error("trade store write failed",
			logger.String("event", string(ev.Type)), logger.Err(err))
	}
}

// SessionTrades lists the closed trades of one session, oldest first.
func (s *Store) SessionTrades(sessionID string) ([]TradeRecord, error) {
	var out []TradeRecord
	err := s.db.Where("session_id = ?", sessionID).Order("id").Find(&out).Error
	return out, err
}

// RiskEvents lists the recorded risk events of one session.
func (s *Store) RiskEvents(sessionID string) ([]RiskEventRecord, error) {
	var out []RiskEventRecord
	err := s.db.Where("session_id = ?", sessionID).Order("id").Find(&out).Error
	return out, err
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func f64(v any) float64 {
	f, _ := v.(float64)
	return f
}
