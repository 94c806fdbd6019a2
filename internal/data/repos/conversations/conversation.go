package conversations

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

const maxPageSize = 1000

type ConversationRepo interface {
	Create(dbc dbctx.Context, rows []*types.Conversation) ([]*types.Conversation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)

	// ListWithAttributeKey pages through conversations whose custom attributes
	// contain key, in id order, starting after afterID when it is non-nil.
	ListWithAttributeKey(dbc dbctx.Context, accountID uuid.UUID, key string, afterID *uuid.UUID, limit int) ([]*types.Conversation, error)
	CountWithAttributeKey(dbc dbctx.Context, accountID uuid.UUID, key string) (int64, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, rows []*types.Conversation) ([]*types.Conversation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Conversation{}, nil
	}
	for _, row := range rows {
		if row != nil && row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conversationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Conversation
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
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
	var out types.Conversation
	err := q.Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) ListWithAttributeKey(dbc dbctx.Context, accountID uuid.UUID, key string, afterID *uuid.UUID, limit int) ([]*types.Conversation, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Conversation
	if accountID == uuid.Nil || key == "" {
		return out, nil
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	q := withAttributeKey(t.WithContext(dbc.Ctx).Where("account_id = ?", accountID), key)
	if afterID != nil && *afterID != uuid.Nil {
		q = q.Where("id > ?", *afterID)
	}
	if err := q.Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) CountWithAttributeKey(dbc dbctx.Context, accountID uuid.UUID, key string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if accountID == uuid.Nil || key == "" {
		return 0, nil
	}
	var n int64
	q := withAttributeKey(t.WithContext(dbc.Ctx).Model(&types.Conversation{}).Where("account_id = ?", accountID), key)
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *conversationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// withAttributeKey filters on top-level key presence in custom_attributes.
func withAttributeKey(q *gorm.DB, key string) *gorm.DB {
	if db.IsPostgres(q) {
		return q.Where("jsonb_exists(custom_attributes::jsonb, ?)", key)
	}
	return q.Where(
		"json_valid(custom_attributes) AND EXISTS (SELECT 1 FROM json_each(conversation.custom_attributes) WHERE json_each.key = ?)",
		key,
	)
}
