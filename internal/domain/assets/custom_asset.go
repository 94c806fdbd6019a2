package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrInvalidAsset = errors.New("invalid custom asset")
	ErrNotFound     = errors.New("custom asset not found")
	ErrDisabled     = errors.New("custom asset is disabled")
)

// Field types understood by the formatter.
const (
	FieldTypeText     = "text"
	FieldTypeCurrency = "currency"
	FieldTypeDate     = "date"
	FieldTypeLink     = "link"
)

// CustomAsset is an external data source backed by an n8n webhook. Records it
// returns are rendered using DisplayConfig.
type CustomAsset struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_custom_asset_account_type,priority:1" json:"account_id"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	AssetType     string         `gorm:"column:asset_type;not null;index:idx_custom_asset_account_type,priority:2" json:"asset_type"`
	WebhookURL    string         `gorm:"column:n8n_webhook_url;not null" json:"n8n_webhook_url"`
	WorkflowID    string         `gorm:"column:n8n_workflow_id" json:"n8n_workflow_id,omitempty"`
	Description   string         `gorm:"column:description;type:text" json:"description,omitempty"`
	DisplayConfig datatypes.JSON `gorm:"column:display_config" json:"display_config"`
	Enabled       bool           `gorm:"column:enabled;not null;index" json:"enabled"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (CustomAsset) TableName() string { return "custom_asset" }

type DisplayField struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Type   string `json:"type,omitempty"`
	Format string `json:"format,omitempty"`
}

type DisplayConfig struct {
	Fields []DisplayField `json:"fields"`
}

// Fields returns the configured display fields, or none when the config is
// missing or unreadable.
func (a *CustomAsset) Fields() []DisplayField {
	if a == nil || len(a.DisplayConfig) == 0 {
		return nil
	}
	var cfg DisplayConfig
	if err := json.Unmarshal(a.DisplayConfig, &cfg); err != nil {
		return nil
	}
	return cfg.Fields
}

// WorkflowLink points at the n8n editor for this asset's workflow.
func (a *CustomAsset) WorkflowLink(baseURL string) string {
	if a == nil || strings.TrimSpace(a.WorkflowID) == "" {
		return ""
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:5678"
	}
	return fmt.Sprintf("%s/workflow/%s", baseURL, strings.TrimSpace(a.WorkflowID))
}

// EncodeDisplayConfig keeps only key/label/type/format per field.
func EncodeDisplayConfig(fields []DisplayField) (datatypes.JSON, error) {
	if fields == nil {
		fields = []DisplayField{}
	}
	b, err := json.Marshal(DisplayConfig{Fields: fields})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// Validate checks the fields every asset needs before it can be saved.
func (a *CustomAsset) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: missing asset", ErrInvalidAsset)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name can't be blank", ErrInvalidAsset)
	}
	if strings.TrimSpace(a.AssetType) == "" {
		return fmt.Errorf("%w: asset_type can't be blank", ErrInvalidAsset)
	}
	if err := ValidateWebhookURL(a.WebhookURL); err != nil {
		return err
	}
	return nil
}

// ValidateWebhookURL accepts absolute http(s) URLs with a host.
func ValidateWebhookURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: n8n_webhook_url can't be blank", ErrInvalidAsset)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: n8n_webhook_url is invalid", ErrInvalidAsset)
	}
	return nil
}
