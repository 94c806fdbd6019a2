package pipelines

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Pipeline is an ordered set of named stages owned by an account. Each
// pipeline links to exactly one derived attribute definition whose values
// mirror the stage names.
type Pipeline struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID             uuid.UUID      `gorm:"type:uuid;not null;index:idx_pipeline_account_name,unique,priority:1" json:"account_id"`
	Name                  string         `gorm:"column:name;not null;index:idx_pipeline_account_name,unique,priority:2" json:"name"`
	Description           string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Stages                datatypes.JSON `gorm:"column:stages;not null" json:"stages"`
	Position              int            `gorm:"column:position;not null;default:0" json:"position"`
	AttributeDefinitionID *uuid.UUID     `gorm:"type:uuid;column:attribute_definition_id;index" json:"attribute_definition_id,omitempty"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null" json:"updated_at"`
}

func (Pipeline) TableName() string { return "pipeline" }

// StageSet decodes the persisted stage list. Rows written by this service
// always pass validation; a decode failure means the row was edited out of band.
func (p *Pipeline) StageSet() (StageSet, error) {
	if p == nil {
		return StageSet{}, ErrNotFound
	}
	return ValidateStages([]byte(p.Stages))
}

// Derived attribute naming.

func AttributeKeyHint(name string) string { return fmt.Sprintf("pipeline_%s_stage", name) }

func AttributeDisplayName(name string) string { return fmt.Sprintf("%s - Stage", name) }

func AttributeDescription(name string) string { return fmt.Sprintf("Pipeline stages for %s", name) }
