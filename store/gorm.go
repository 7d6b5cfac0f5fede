package store

import (
	"errors"
	"fmt"

	"testing-vm-bot/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the sqlite-backed RecordStore.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetOrCreate(agentID string) (*model.AgentRecord, error) {
	rec := model.AgentRecord{AgentID: agentID}
	if err := s.db.FirstOrCreate(&rec, model.AgentRecord{AgentID: agentID}).Error; err != nil {
		return nil, fmt.Errorf("get or create %q: %w", agentID, err)
	}
	return &rec, nil
}

func (s *GormStore) AdvanceRawBatch(agentIDs []string, deltaSecs int64) error {
	if len(agentIDs) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range agentIDs {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "agent_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"raw_uptime_secs": gorm.Expr("raw_uptime_secs + ?", deltaSecs),
				}),
			}).Create(&model.AgentRecord{AgentID: id, RawUptimeSecs: deltaSecs}).Error
			if err != nil {
				return fmt.Errorf("advance raw uptime for %q: %w", id, err)
			}
		}
		return nil
	})
}

func (s *GormStore) Bind(agentID string, chat int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&model.AgentRecord{}).Where("bound_chat = ?", chat).Count(&taken).Error; err != nil {
			return fmt.Errorf("check chat binding: %w", err)
		}
		if taken > 0 {
			return ErrAlreadyBound
		}

		var rec model.AgentRecord
		if err := tx.First(&rec, "agent_id = ?", agentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("look up %q: %w", agentID, err)
		}
		if rec.BoundChat != nil {
			return ErrAlreadyBound
		}

		res := tx.Model(&model.AgentRecord{}).
			Where("agent_id = ? AND bound_chat IS NULL", agentID).
			Update("bound_chat", chat)
		if res.Error != nil {
			return fmt.Errorf("bind %q: %w", agentID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyBound
		}
		return nil
	})
}

func (s *GormStore) Unbind(chat int64) error {
	res := s.db.Model(&model.AgentRecord{}).
		Where("bound_chat = ?", chat).
		Update("bound_chat", nil)
	if res.Error != nil {
		return fmt.Errorf("unbind chat %d: %w", chat, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindByChat(chat int64) (*model.AgentRecord, error) {
	var rec model.AgentRecord
	if err := s.db.First(&rec, "bound_chat = ?", chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find record for chat %d: %w", chat, err)
	}
	return &rec, nil
}

func (s *GormStore) ListNotifiable(thresholdSecs int64) ([]model.AgentRecord, error) {
	var recs []model.AgentRecord
	err := s.db.
		Where("bound_chat IS NOT NULL AND raw_uptime_secs - notified_secs >= ?", thresholdSecs).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("scan notifiable records: %w", err)
	}
	return recs, nil
}

// The WHERE clause carries the ledger guard so the counter can never pass
// the one above it, no matter what the caller computed from a stale read.
func (s *GormStore) AdvanceNotified(chat int64, deltaSecs int64) error {
	res := s.db.Model(&model.AgentRecord{}).
		Where("bound_chat = ? AND notified_secs + ? <= raw_uptime_secs", chat, deltaSecs).
		Update("notified_secs", gorm.Expr("notified_secs + ?", deltaSecs))
	if res.Error != nil {
		return fmt.Errorf("advance notified for chat %d: %w", chat, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAdvanceRejected
	}
	return nil
}

func (s *GormStore) AdvanceClaimed(chat int64, deltaSecs int64) error {
	res := s.db.Model(&model.AgentRecord{}).
		Where("bound_chat = ? AND claimed_secs + ? <= notified_secs", chat, deltaSecs).
		Update("claimed_secs", gorm.Expr("claimed_secs + ?", deltaSecs))
	if res.Error != nil {
		return fmt.Errorf("advance claimed for chat %d: %w", chat, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAdvanceRejected
	}
	return nil
}
