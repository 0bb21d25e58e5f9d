package forum

import (
	"context"

	"gorm.io/gorm"

	"github.com/nodespeak/nodespeak/models"
)

// Journal persists the lifecycle of transactions sent by the node.
type Journal interface {
	Record(ctx context.Context, rec *models.TxRecord) error
	Update(ctx context.Context, txHash, status string, block uint64, errText string) error
	Recent(ctx context.Context, limit int) ([]models.TxRecord, error)
}

// NopJournal is used when the node runs without a database.
type NopJournal struct{}

func (NopJournal) Record(context.Context, *models.TxRecord) error { return nil }
func (NopJournal) Update(context.Context, string, string, uint64, string) error {
	return nil
}
func (NopJournal) Recent(context.Context, int) ([]models.TxRecord, error) { return nil, nil }

// GormJournal stores TxRecords with gorm.
type GormJournal struct {
	db *gorm.DB
}

func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}

func (j *GormJournal) Record(ctx context.Context, rec *models.TxRecord) error {
	return j.db.WithContext(ctx).Create(rec).Error
}

func (j *GormJournal) Update(ctx context.Context, txHash, status string, block uint64, errText string) error {
	return j.db.WithContext(ctx).Model(&models.TxRecord{}).
		Where("tx_hash = ?", txHash).
		Updates(map[string]interface{}{"status": status, "block": block, "error": errText}).Error
}

func (j *GormJournal) Recent(ctx context.Context, limit int) ([]models.TxRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var recs []models.TxRecord
	err := j.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&recs).Error
	return recs, err
}
