package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/data/db"
	"github.com/yungbote/pipelines-backend/internal/data/repos"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

// AttributeRegistry mints and maintains derived list attributes. It never
// opens a transaction of its own; callers pass one in dbc.
type AttributeRegistry interface {
	Mint(dbc dbctx.Context, in attributes.MintInput) (*attributes.Definition, error)
	UpdateValues(dbc dbctx.Context, definitionID uuid.UUID, values []string, description string) error
	Delete(dbc dbctx.Context, definitionID uuid.UUID) error
	Get(dbc dbctx.Context, definitionID uuid.UUID) (*attributes.Definition, error)
}

type attributeRegistry struct {
	db          *gorm.DB
	log         *logger.Logger
	definitions repos.AttributeDefinitionRepo
}

func NewAttributeRegistry(db *gorm.DB, log *logger.Logger, definitions repos.AttributeDefinitionRepo) AttributeRegistry {
	return &attributeRegistry{
		db:          db,
		log:         log.With("service", "AttributeRegistry"),
		definitions: definitions,
	}
}

func (r *attributeRegistry) Mint(dbc dbctx.Context, in attributes.MintInput) (*attributes.Definition, error) {
	if in.AccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing account id", attributes.ErrPersistence)
	}
	base := attributes.NormalizeKey(in.KeyHint)

	taken, err := r.definitions.ListKeysWithPrefix(dbc, in.AccountID, base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attributes.ErrPersistence, err)
	}
	key, err := attributes.NextFreeKey(base, taken, attributes.MaxKeySuffix)
	if err != nil {
		r.log.Warn("attribute key space exhausted", "account_id", in.AccountID, "base_key", base)
		return nil, err
	}

	values, err := attributes.EncodeValues(in.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attributes.ErrPersistence, err)
	}
	def := &attributes.Definition{
		ID:             uuid.New(),
		AccountID:      in.AccountID,
		AttributeKey:   key,
		DisplayName:    in.DisplayName,
		AttributeModel: attributes.ModelConversationAttribute,
		DisplayType:    attributes.DisplayTypeList,
		Values:         values,
		Description:    in.Description,
	}
	if err := r.definitions.Create(dbc, def); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s: %w", attributes.ErrKeyConflict, key, err)
		}
		return nil, fmt.Errorf("%w: %w", attributes.ErrPersistence, err)
	}
	r.log.Debug("attribute definition minted", "account_id", in.AccountID, "attribute_key", key)
	return def, nil
}

// UpdateValues replaces values and description. The key is never touched.
func (r *attributeRegistry) UpdateValues(dbc dbctx.Context, definitionID uuid.UUID, values []string, description string) error {
	if definitionID == uuid.Nil {
		return attributes.ErrDefinitionNotFound
	}
	enc, err := attributes.EncodeValues(values)
	if err != nil {
		return fmt.Errorf("%w: %w", attributes.ErrPersistence, err)
	}
	n, err := r.definitions.UpdateFields(dbc, definitionID, map[string]interface{}{
		"values":      enc,
		"description": description,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", attributes.ErrPersistence, err)
	}
	if n == 0 {
		return attributes.ErrDefinitionNotFound
	}
	return nil
}

// Delete succeeds when the definition is already gone.
func (r *attributeRegistry) Delete(dbc dbctx.Context, definitionID uuid.UUID) error {
	if err := r.definitions.DeleteByID(dbc, definitionID); err != nil {
		return fmt.Errorf("%w: %w", attributes.ErrPersistence, err)
	}
	return nil
}

func (r *attributeRegistry) Get(dbc dbctx.Context, definitionID uuid.UUID) (*attributes.Definition, error) {
	def, err := r.definitions.GetByID(dbc, definitionID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, attributes.ErrDefinitionNotFound
	}
	return def, nil
}
