package assets

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pipelines-backend/internal/domain"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

type CustomAssetRepo interface {
	Create(dbc dbctx.Context, row *types.CustomAsset) error
	GetByID(dbc dbctx.Context, accountID, id uuid.UUID) (*types.CustomAsset, error)
	ListByAccount(dbc dbctx.Context, accountID uuid.UUID, enabledOnly bool) ([]*types.CustomAsset, error)
	UpdateFields(dbc dbctx.Context, accountID, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, accountID, id uuid.UUID) (bool, error)
}

type customAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomAssetRepo(db *gorm.DB, baseLog *logger.Logger) CustomAssetRepo {
	return &customAssetRepo{db: db, log: baseLog.With("repo", "CustomAssetRepo")}
}

func (r *customAssetRepo) Create(dbc dbctx.Context, row *types.CustomAsset) error {
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

func (r *customAssetRepo) GetByID(dbc dbctx.Context, accountID, id uuid.UUID) (*types.CustomAsset, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || accountID == uuid.Nil {
		return nil, nil
	}
	var out types.CustomAsset
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

func (r *customAssetRepo) ListByAccount(dbc dbctx.Context, accountID uuid.UUID, enabledOnly bool) ([]*types.CustomAsset, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.CustomAsset
	if accountID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).Where("account_id = ?", accountID)
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	if err := q.Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *customAssetRepo) UpdateFields(dbc dbctx.Context, accountID, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.CustomAsset{}).
		Where("id = ? AND account_id = ?", id, accountID).
		Updates(updates).Error
}

func (r *customAssetRepo) Delete(dbc dbctx.Context, accountID, id uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		Delete(&types.CustomAsset{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
