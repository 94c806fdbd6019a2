package attributes

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pipelines-backend/internal/domain"
	domainattr "github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

type AttributeDefinitionRepo interface {
	Create(dbc dbctx.Context, row *types.AttributeDefinition) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AttributeDefinition, error)
	// ListKeysWithPrefix returns base itself and every key shaped base_*.
	ListKeysWithPrefix(dbc dbctx.Context, accountID uuid.UUID, base string) ([]string, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (int64, error)
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type attributeDefinitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttributeDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) AttributeDefinitionRepo {
	return &attributeDefinitionRepo{db: db, log: baseLog.With("repo", "AttributeDefinitionRepo")}
}

func (r *attributeDefinitionRepo) Create(dbc dbctx.Context, row *types.AttributeDefinition) error {
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

func (r *attributeDefinitionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AttributeDefinition, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.AttributeDefinition
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *attributeDefinitionRepo) ListKeysWithPrefix(dbc dbctx.Context, accountID uuid.UUID, base string) ([]string, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var keys []string
	if err := t.WithContext(dbc.Ctx).
		Model(&types.AttributeDefinition{}).
		Where("account_id = ?", accountID).
		Where("attribute_key = ? OR attribute_key LIKE ? ESCAPE '\\'", base, domainattr.LikePrefixPattern(base)).
		Pluck("attribute_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// UpdateFields returns the number of matched rows so callers can detect a
// definition that vanished.
func (r *attributeDefinitionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return 0, fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.AttributeDefinition{}).
		Where("id = ?", id).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *attributeDefinitionRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.AttributeDefinition{}).Error
}
