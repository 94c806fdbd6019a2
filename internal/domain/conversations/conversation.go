package conversations

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Conversation is the dependent record pipelines tag through their derived
// attribute key. The link is discovered by querying CustomAttributes, never
// stored as a foreign key.
type Conversation struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"account_id"`
	CustomAttributes datatypes.JSON `gorm:"column:custom_attributes" json:"custom_attributes"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }

// Attributes decodes CustomAttributes preserving key order.
func (c *Conversation) Attributes() (*AttributeMap, error) {
	if c == nil {
		return NewAttributeMap(), nil
	}
	return ParseAttributeMap(c.CustomAttributes)
}
