package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/clients/n8n"
	dataagg "github.com/yungbote/pipelines-backend/internal/data/aggregates"
	"github.com/yungbote/pipelines-backend/internal/data/repos"
	"github.com/yungbote/pipelines-backend/internal/domain/assets"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

type CustomAssetInput struct {
	Name          string
	AssetType     string
	WebhookURL    string
	WorkflowID    string
	Description   string
	DisplayFields []assets.DisplayField
	Enabled       *bool
}

// CustomAssetPatch fields left nil are not touched.
type CustomAssetPatch struct {
	Name          *string
	AssetType     *string
	WebhookURL    *string
	WorkflowID    *string
	Description   *string
	DisplayFields *[]assets.DisplayField
	Enabled       *bool
}

// ContactSnapshot is what the workflow is told about the contact in the
// current conversation.
type ContactSnapshot struct {
	ID                   string
	Email                string
	Phone                string
	Name                 string
	CustomAttributes     map[string]any
	AdditionalAttributes map[string]any
}

type FetchAssetsRequest struct {
	Contact     ContactSnapshot
	SearchQuery string
	Filters     map[string]any
}

type FetchAssetsResult struct {
	Assets    []n8n.Record
	Total     int
	Formatted []string
}

// CustomAssetService manages n8n-backed assets and fetches their records.
// Errors are *aggregates.Error so handlers can map them without knowing the
// sentinels.
type CustomAssetService interface {
	Create(ctx context.Context, accountID uuid.UUID, in CustomAssetInput) (*assets.CustomAsset, error)
	Get(ctx context.Context, accountID, id uuid.UUID) (*assets.CustomAsset, error)
	// ListEnabled returns the account's enabled assets by name.
	ListEnabled(ctx context.Context, accountID uuid.UUID) ([]*assets.CustomAsset, error)
	Update(ctx context.Context, accountID, id uuid.UUID, patch CustomAssetPatch) (*assets.CustomAsset, error)
	Delete(ctx context.Context, accountID, id uuid.UUID) error
	// FetchAssets calls the asset's workflow. Workflow failures yield an empty
	// result, not an error.
	FetchAssets(ctx context.Context, accountID, id uuid.UUID, req FetchAssetsRequest) (FetchAssetsResult, error)
	TestConnection(ctx context.Context, webhookURL string) n8n.TestResult
}

type customAssetService struct {
	db        *gorm.DB
	log       *logger.Logger
	assets    repos.CustomAssetRepo
	n8n       n8n.Client
	formatter AssetFormatter
}

func NewCustomAssetService(db *gorm.DB, log *logger.Logger, assetRepo repos.CustomAssetRepo, client n8n.Client, formatter AssetFormatter) CustomAssetService {
	if formatter == nil {
		formatter = NewAssetFormatter(log)
	}
	return &customAssetService{
		db:        db,
		log:       log.With("service", "CustomAssetService"),
		assets:    assetRepo,
		n8n:       client,
		formatter: formatter,
	}
}

func (s *customAssetService) Create(ctx context.Context, accountID uuid.UUID, in CustomAssetInput) (*assets.CustomAsset, error) {
	const op = "Assets.CustomAsset.Create"
	if accountID == uuid.Nil {
		return nil, dataagg.MapError(op, dataagg.ValidationError("account_id is required"))
	}
	cfg, err := assets.EncodeDisplayConfig(in.DisplayFields)
	if err != nil {
		return nil, dataagg.MapError(op, fmt.Errorf("%w: display_config: %v", assets.ErrInvalidAsset, err))
	}
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	row := &assets.CustomAsset{
		AccountID:     accountID,
		Name:          strings.TrimSpace(in.Name),
		AssetType:     strings.TrimSpace(in.AssetType),
		WebhookURL:    strings.TrimSpace(in.WebhookURL),
		WorkflowID:    strings.TrimSpace(in.WorkflowID),
		Description:   strings.TrimSpace(in.Description),
		DisplayConfig: cfg,
		Enabled:       enabled,
	}
	if err := row.Validate(); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if err := s.assets.Create(dbctx.Context{Ctx: ctx, Tx: s.db}, row); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	s.log.Info("custom asset created", "account_id", accountID, "asset_id", row.ID, "asset_type", row.AssetType)
	return row, nil
}

func (s *customAssetService) Get(ctx context.Context, accountID, id uuid.UUID) (*assets.CustomAsset, error) {
	const op = "Assets.CustomAsset.Get"
	row, err := s.assets.GetByID(dbctx.Context{Ctx: ctx, Tx: s.db}, accountID, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if row == nil {
		return nil, dataagg.MapError(op, assets.ErrNotFound)
	}
	return row, nil
}

func (s *customAssetService) ListEnabled(ctx context.Context, accountID uuid.UUID) ([]*assets.CustomAsset, error) {
	rows, err := s.assets.ListByAccount(dbctx.Context{Ctx: ctx, Tx: s.db}, accountID, true)
	if err != nil {
		return nil, dataagg.MapError("Assets.CustomAsset.List", err)
	}
	return rows, nil
}

func (s *customAssetService) Update(ctx context.Context, accountID, id uuid.UUID, patch CustomAssetPatch) (*assets.CustomAsset, error) {
	const op = "Assets.CustomAsset.Update"
	var out *assets.CustomAsset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := s.assets.GetByID(dbc, accountID, id)
		if err != nil {
			return err
		}
		if row == nil {
			return assets.ErrNotFound
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			row.Name = strings.TrimSpace(*patch.Name)
			updates["name"] = row.Name
		}
		if patch.AssetType != nil {
			row.AssetType = strings.TrimSpace(*patch.AssetType)
			updates["asset_type"] = row.AssetType
		}
		if patch.WebhookURL != nil {
			row.WebhookURL = strings.TrimSpace(*patch.WebhookURL)
			updates["n8n_webhook_url"] = row.WebhookURL
		}
		if patch.WorkflowID != nil {
			row.WorkflowID = strings.TrimSpace(*patch.WorkflowID)
			updates["n8n_workflow_id"] = row.WorkflowID
		}
		if patch.Description != nil {
			row.Description = strings.TrimSpace(*patch.Description)
			updates["description"] = row.Description
		}
		if patch.DisplayFields != nil {
			cfg, err := assets.EncodeDisplayConfig(*patch.DisplayFields)
			if err != nil {
				return fmt.Errorf("%w: display_config: %v", assets.ErrInvalidAsset, err)
			}
			row.DisplayConfig = cfg
			updates["display_config"] = cfg
		}
		if patch.Enabled != nil {
			row.Enabled = *patch.Enabled
			updates["enabled"] = row.Enabled
		}
		if err := row.Validate(); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := s.assets.UpdateFields(dbc, accountID, id, updates); err != nil {
				return err
			}
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return out, nil
}

func (s *customAssetService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	const op = "Assets.CustomAsset.Delete"
	deleted, err := s.assets.Delete(dbctx.Context{Ctx: ctx, Tx: s.db}, accountID, id)
	if err != nil {
		return dataagg.MapError(op, err)
	}
	if !deleted {
		return dataagg.MapError(op, assets.ErrNotFound)
	}
	s.log.Info("custom asset deleted", "account_id", accountID, "asset_id", id)
	return nil
}

func (s *customAssetService) FetchAssets(ctx context.Context, accountID, id uuid.UUID, req FetchAssetsRequest) (FetchAssetsResult, error) {
	const op = "Assets.CustomAsset.FetchAssets"
	out := FetchAssetsResult{Assets: []n8n.Record{}, Formatted: []string{}}

	asset, err := s.Get(ctx, accountID, id)
	if err != nil {
		return out, err
	}
	if !asset.Enabled {
		return out, dataagg.MapError(op, assets.ErrDisabled)
	}

	filters := req.Filters
	if filters == nil {
		filters = map[string]any{}
	}
	records := s.n8n.FetchList(ctx, asset.WebhookURL, n8n.FetchPayload{
		ContactID:            req.Contact.ID,
		Email:                req.Contact.Email,
		Phone:                req.Contact.Phone,
		Name:                 req.Contact.Name,
		CustomAttributes:     req.Contact.CustomAttributes,
		AdditionalAttributes: req.Contact.AdditionalAttributes,
		SearchQuery:          req.SearchQuery,
		Filters:              filters,
		AccountID:            accountID.String(),
	})
	for _, rec := range records {
		out.Assets = append(out.Assets, rec)
		out.Formatted = append(out.Formatted, s.formatter.Format(asset, rec))
	}
	out.Total = len(out.Assets)
	return out, nil
}

func (s *customAssetService) TestConnection(ctx context.Context, webhookURL string) n8n.TestResult {
	return s.n8n.TestConnection(ctx, strings.TrimSpace(webhookURL))
}
