package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/pipelines-backend/internal/domain"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
)

// SeedConversation stores a conversation whose custom attributes are the given
// JSON object text (or none when attrs is empty).
func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, accountID uuid.UUID, attrs string) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{ID: uuid.New(), AccountID: accountID}
	if attrs != "" {
		c.CustomAttributes = datatypes.JSON([]byte(attrs))
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedDefinition(tb testing.TB, ctx context.Context, tx *gorm.DB, accountID uuid.UUID, key string, values ...string) *types.AttributeDefinition {
	tb.Helper()
	enc, err := attributes.EncodeValues(values)
	if err != nil {
		tb.Fatalf("encode values: %v", err)
	}
	d := &types.AttributeDefinition{
		ID:             uuid.New(),
		AccountID:      accountID,
		AttributeKey:   key,
		DisplayName:    key,
		AttributeModel: attributes.ModelConversationAttribute,
		DisplayType:    attributes.DisplayTypeList,
		Values:         enc,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed definition: %v", err)
	}
	return d
}

// SeedPipeline stores a pipeline row directly, bypassing validation and the
// attribute registry.
func SeedPipeline(tb testing.TB, ctx context.Context, tx *gorm.DB, accountID uuid.UUID, name string, position int, stages ...string) *types.Pipeline {
	tb.Helper()
	items := make([]map[string]any, 0, len(stages))
	for i, s := range stages {
		items = append(items, map[string]any{"name": s, "order": i})
	}
	raw, err := json.Marshal(items)
	if err != nil {
		tb.Fatalf("encode stages: %v", err)
	}
	p := &types.Pipeline{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Position:  position,
		Stages:    datatypes.JSON(raw),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed pipeline: %v", err)
	}
	return p
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }
