package business

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lpcontrol/internal/models"
)

// Journal persists what the service submitted. It is an audit trail; lifecycle state
// always comes from a fresh chain read, except the retired flag of a position record.
type Journal interface {
	RecordPool(ctx context.Context, pool *models.PoolRecord) error
	Pool(ctx context.Context, address string) (*models.PoolRecord, error)
	ListPools(ctx context.Context) ([]models.PoolRecord, error)

	Position(ctx context.Context, nftMint string) (*models.PositionRecord, error)
	SavePosition(ctx context.Context, position *models.PositionRecord) error

	RecordSubmission(ctx context.Context, sub *models.Submission) error
	UpdateSubmission(ctx context.Context, signature string, update SubmissionUpdate) error
	Submission(ctx context.Context, signature string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	PendingSubmissions(ctx context.Context, limit int) ([]models.Submission, error)
}

type SubmissionFilter struct {
	NftMint     string
	PoolAddress string
	Status      string
	Limit       int
}

type SubmissionUpdate struct {
	Status      string
	Slot        uint64
	Error       string
	ConfirmedAt *time.Time
}

const defaultListLimit = 100

// GormJournal is the postgres journal.
type GormJournal struct {
	db *gorm.DB
}

func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}

func (j *GormJournal) RecordPool(ctx context.Context, pool *models.PoolRecord) error {
	return j.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "address"}}, DoNothing: true}).
		Create(pool).Error
}

func (j *GormJournal) Pool(ctx context.Context, address string) (*models.PoolRecord, error) {
	var pool models.PoolRecord
	err := j.db.WithContext(ctx).Where("address = ?", address).First(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (j *GormJournal) ListPools(ctx context.Context) ([]models.PoolRecord, error) {
	var pools []models.PoolRecord
	if err := j.db.WithContext(ctx).Order("id desc").Limit(defaultListLimit).Find(&pools).Error; err != nil {
		return nil, err
	}
	return pools, nil
}

func (j *GormJournal) Position(ctx context.Context, nftMint string) (*models.PositionRecord, error) {
	var position models.PositionRecord
	err := j.db.WithContext(ctx).Where("nft_mint = ?", nftMint).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// SavePosition upserts by nft mint.
func (j *GormJournal) SavePosition(ctx context.Context, position *models.PositionRecord) error {
	return j.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "nft_mint"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner", "tick_lower", "tick_upper", "liquidity", "phase", "retired", "updated_at"}),
		}).
		Create(position).Error
}

func (j *GormJournal) RecordSubmission(ctx context.Context, sub *models.Submission) error {
	return j.db.WithContext(ctx).Create(sub).Error
}

func (j *GormJournal) UpdateSubmission(ctx context.Context, signature string, update SubmissionUpdate) error {
	values := map[string]interface{}{
		"status": update.Status,
		"error":  update.Error,
	}
	if update.Slot != 0 {
		values["slot"] = update.Slot
	}
	if update.ConfirmedAt != nil {
		values["confirmed_at"] = update.ConfirmedAt
	}
	res := j.db.WithContext(ctx).Model(&models.Submission{}).Where("signature = ?", signature).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (j *GormJournal) Submission(ctx context.Context, signature string) (*models.Submission, error) {
	var sub models.Submission
	err := j.db.WithContext(ctx).Where("signature = ?", signature).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (j *GormJournal) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := j.db.WithContext(ctx).Model(&models.Submission{})
	if filter.NftMint != "" {
		query = query.Where("nft_mint = ?", filter.NftMint)
	}
	if filter.PoolAddress != "" {
		query = query.Where("pool_address = ?", filter.PoolAddress)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	var subs []models.Submission
	if err := query.Order("id desc").Limit(limit).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// PendingSubmissions returns the oldest pending submissions first.
func (j *GormJournal) PendingSubmissions(ctx context.Context, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var subs []models.Submission
	err := j.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at asc").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// NopJournal keeps nothing. It serves the CLI when no database is configured; closed
// positions then read as unopened since there is no retired flag to consult.
type NopJournal struct{}

func (NopJournal) RecordPool(context.Context, *models.PoolRecord) error { return nil }

func (NopJournal) Pool(context.Context, string) (*models.PoolRecord, error) { return nil, nil }

func (NopJournal) ListPools(context.Context) ([]models.PoolRecord, error) { return nil, nil }

func (NopJournal) Position(context.Context, string) (*models.PositionRecord, error) {
	return nil, nil
}

func (NopJournal) SavePosition(context.Context, *models.PositionRecord) error { return nil }

func (NopJournal) RecordSubmission(context.Context, *models.Submission) error { return nil }

func (NopJournal) UpdateSubmission(context.Context, string, SubmissionUpdate) error { return nil }

func (NopJournal) Submission(context.Context, string) (*models.Submission, error) { return nil, nil }

func (NopJournal) ListSubmissions(context.Context, SubmissionFilter) ([]models.Submission, error) {
	return nil, nil
}

func (NopJournal) PendingSubmissions(context.Context, int) ([]models.Submission, error) {
	return nil, nil
}
