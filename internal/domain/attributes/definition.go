package attributes

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ModelConversationAttribute = "conversation_attribute"
	DisplayTypeList            = "list"
)

// Definition is a typed, account-scoped attribute that conversations can carry
// in their custom attribute map. AttributeKey never changes after creation.
type Definition struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_attribute_definition_account_key,unique,priority:1" json:"account_id"`
	AttributeKey   string         `gorm:"column:attribute_key;not null;index:idx_attribute_definition_account_key,unique,priority:2" json:"attribute_key"`
	DisplayName    string         `gorm:"column:display_name;not null" json:"display_name"`
	AttributeModel string         `gorm:"column:attribute_model;not null" json:"attribute_model"`
	DisplayType    string         `gorm:"column:display_type;not null" json:"display_type"`
	Values         datatypes.JSON `gorm:"column:values" json:"values"`
	Description    string         `gorm:"column:description;type:text" json:"description,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (Definition) TableName() string { return "attribute_definition" }

// ValueList decodes Values. Malformed or empty storage yields an empty list.
func (d *Definition) ValueList() []string {
	if d == nil || len(d.Values) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(d.Values, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// EncodeValues renders an ordered value list for the Values column.
func EncodeValues(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// MintInput describes a new derived attribute. KeyHint is normalized before
// use; DisplayName and Description are stored as given.
type MintInput struct {
	AccountID   uuid.UUID
	DisplayName string
	KeyHint     string
	Values      []string
	Description string
}
