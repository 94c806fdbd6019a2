package pipelines

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/pipelines-backend/internal/data/db"
	types "github.com/yungbote/pipelines-backend/internal/domain"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

type PipelineRepo interface {
	Create(dbc dbctx.Context, row *types.Pipeline) error

	GetByID(dbc dbctx.Context, accountID, id uuid.UUID) (*types.Pipeline, error)
	GetByName(dbc dbctx.Context, accountID uuid.UUID, name string) (*types.Pipeline, error)
	LockByID(dbc dbctx.Context, accountID, id uuid.UUID) (*types.Pipeline, error)
	NameTaken(dbc dbctx.Context, accountID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	ListByAccount(dbc dbctx.Context, accountID uuid.UUID) ([]*types.Pipeline, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, accountID, id uuid.UUID) (bool, error)
}

type pipelineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPipelineRepo(db *gorm.DB, baseLog *logger.Logger) PipelineRepo {
	return &pipelineRepo{db: db, log: baseLog.With("repo", "PipelineRepo")}
}

func (r *pipelineRepo) Create(dbc dbctx.Context, row *types.Pipeline) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return fmt.Errorf("missing row")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

// GetByID returns nil, nil when the pipeline does not exist in the account.
func (r *pipelineRepo) GetByID(dbc dbctx.Context, accountID, id uuid.UUID) (*types.Pipeline, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || accountID == uuid.Nil {
		return nil, nil
	}
	var out types.Pipeline
	err := t.WithContext(dbc.Ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *pipelineRepo) GetByName(dbc dbctx.Context, accountID uuid.UUID, name string) (*types.Pipeline, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out types.Pipeline
	err := t.WithContext(dbc.Ctx).
		Where("account_id = ? AND name = ?", accountID, name).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockByID takes a row lock for the rest of the transaction. SQLite has no
// row locks; its single writer already serializes the update.
func (r *pipelineRepo) LockByID(dbc dbctx.Context, accountID, id uuid.UUID) (*types.Pipeline, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	q := dbc.Tx.WithContext(dbc.Ctx)
	if db.IsPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.Pipeline
	err := q.Where("id = ? AND account_id = ?", id, accountID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *pipelineRepo) NameTaken(dbc dbctx.Context, accountID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Model(&types.Pipeline{}).
		Where("account_id = ? AND name = ?", accountID, name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByAccount orders by position, then creation time.
func (r *pipelineRepo) ListByAccount(dbc dbctx.Context, accountID uuid.UUID) ([]*types.Pipeline, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Pipeline
	if accountID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("account_id = ?", accountID).
		Order("position ASC, created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pipelineRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Pipeline{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete reports whether a row was removed.
func (r *pipelineRepo) Delete(dbc dbctx.Context, accountID, id uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		Delete(&types.Pipeline{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
