package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pipelines-backend/internal/clients/n8n"
	"github.com/yungbote/pipelines-backend/internal/domain/assets"
	"github.com/yungbote/pipelines-backend/internal/http/middleware"
	"github.com/yungbote/pipelines-backend/internal/http/response"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
	"github.com/yungbote/pipelines-backend/internal/services"
)

type CustomAssetHandler struct {
	log        *logger.Logger
	assets     services.CustomAssetService
	n8nBaseURL string
}

func NewCustomAssetHandler(log *logger.Logger, assetService services.CustomAssetService, n8nBaseURL string) *CustomAssetHandler {
	return &CustomAssetHandler{
		log:        log.With("handler", "CustomAssetHandler"),
		assets:     assetService,
		n8nBaseURL: n8nBaseURL,
	}
}

type displayConfigParams struct {
	Fields []assets.DisplayField `json:"fields"`
}

type customAssetParams struct {
	Name          *string              `json:"name"`
	AssetType     *string              `json:"asset_type"`
	WebhookURL    *string              `json:"n8n_webhook_url"`
	WorkflowID    *string              `json:"n8n_workflow_id"`
	Description   *string              `json:"description"`
	Enabled       *bool                `json:"enabled"`
	DisplayConfig *displayConfigParams `json:"display_config"`
}

type customAssetJSON struct {
	ID            uuid.UUID           `json:"id"`
	AccountID     uuid.UUID           `json:"account_id"`
	Name          string              `json:"name"`
	AssetType     string              `json:"asset_type"`
	WebhookURL    string              `json:"n8n_webhook_url"`
	WorkflowID    string              `json:"n8n_workflow_id,omitempty"`
	WorkflowLink  string              `json:"workflow_link,omitempty"`
	Description   string              `json:"description,omitempty"`
	Enabled       bool                `json:"enabled"`
	DisplayConfig displayConfigParams `json:"display_config"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (h *CustomAssetHandler) render(a *assets.CustomAsset) customAssetJSON {
	fields := a.Fields()
	if fields == nil {
		fields = []assets.DisplayField{}
	}
	return customAssetJSON{
		ID:            a.ID,
		AccountID:     a.AccountID,
		Name:          a.Name,
		AssetType:     a.AssetType,
		WebhookURL:    a.WebhookURL,
		WorkflowID:    a.WorkflowID,
		WorkflowLink:  a.WorkflowLink(h.n8nBaseURL),
		Description:   a.Description,
		Enabled:       a.Enabled,
		DisplayConfig: displayConfigParams{Fields: fields},
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GET /api/accounts/:account_id/custom_assets
func (h *CustomAssetHandler) List(c *gin.Context) {
	rows, err := h.assets.ListEnabled(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out := make([]customAssetJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.render(row))
	}
	response.RespondOK(c, out)
}

// POST /api/accounts/:account_id/custom_assets
func (h *CustomAssetHandler) Create(c *gin.Context) {
	var params customAssetParams
	if err := bindWrapped(c, "custom_asset", &params); err != nil {
		response.RespondErr(c, err)
		return
	}
	in := services.CustomAssetInput{
		Name:        deref(params.Name),
		AssetType:   deref(params.AssetType),
		WebhookURL:  deref(params.WebhookURL),
		WorkflowID:  deref(params.WorkflowID),
		Description: deref(params.Description),
		Enabled:     params.Enabled,
	}
	if params.DisplayConfig != nil {
		in.DisplayFields = params.DisplayConfig.Fields
	}
	row, err := h.assets.Create(c.Request.Context(), middleware.AccountID(c), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, h.render(row))
}

// GET /api/accounts/:account_id/custom_assets/:id
func (h *CustomAssetHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id", "custom asset")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	row, err := h.assets.Get(c.Request.Context(), middleware.AccountID(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, h.render(row))
}

// PATCH /api/accounts/:account_id/custom_assets/:id
func (h *CustomAssetHandler) Update(c *gin.Context) {
	id, err := pathUUID(c, "id", "custom asset")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var params customAssetParams
	if err := bindWrapped(c, "custom_asset", &params); err != nil {
		response.RespondErr(c, err)
		return
	}
	patch := services.CustomAssetPatch{
		Name:        params.Name,
		AssetType:   params.AssetType,
		WebhookURL:  params.WebhookURL,
		WorkflowID:  params.WorkflowID,
		Description: params.Description,
		Enabled:     params.Enabled,
	}
	if params.DisplayConfig != nil {
		fields := params.DisplayConfig.Fields
		patch.DisplayFields = &fields
	}
	row, err := h.assets.Update(c.Request.Context(), middleware.AccountID(c), id, patch)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, h.render(row))
}

// DELETE /api/accounts/:account_id/custom_assets/:id
func (h *CustomAssetHandler) Delete(c *gin.Context) {
	id, err := pathUUID(c, "id", "custom asset")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := h.assets.Delete(c.Request.Context(), middleware.AccountID(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type fetchAssetsParams struct {
	Contact struct {
		ID                   string         `json:"id"`
		Email                string         `json:"email"`
		Phone                string         `json:"phone_number"`
		Name                 string         `json:"name"`
		CustomAttributes     map[string]any `json:"custom_attributes"`
		AdditionalAttributes map[string]any `json:"additional_attributes"`
	} `json:"contact"`
	SearchQuery string         `json:"search_query"`
	Filters     map[string]any `json:"filters"`
}

// POST /api/accounts/:account_id/custom_assets/:id/fetch_assets
func (h *CustomAssetHandler) FetchAssets(c *gin.Context) {
	id, err := pathUUID(c, "id", "custom asset")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var params fetchAssetsParams
	if err := bindWrapped(c, "fetch", &params); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.assets.FetchAssets(c.Request.Context(), middleware.AccountID(c), id, services.FetchAssetsRequest{
		Contact: services.ContactSnapshot{
			ID:                   params.Contact.ID,
			Email:                params.Contact.Email,
			Phone:                params.Contact.Phone,
			Name:                 params.Contact.Name,
			CustomAttributes:     params.Contact.CustomAttributes,
			AdditionalAttributes: params.Contact.AdditionalAttributes,
		},
		SearchQuery: params.SearchQuery,
		Filters:     params.Filters,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"assets":    res.Assets,
		"total":     res.Total,
		"formatted": res.Formatted,
	})
}

// POST /api/accounts/:account_id/custom_assets/test_connection
func (h *CustomAssetHandler) TestConnection(c *gin.Context) {
	var params struct {
		WebhookURL string `json:"n8n_webhook_url"`
	}
	if err := bindWrapped(c, "custom_asset", &params); err != nil {
		response.RespondErr(c, err)
		return
	}
	if strings.TrimSpace(params.WebhookURL) == "" {
		c.JSON(http.StatusUnprocessableEntity, n8n.TestResult{Success: false, Error: "n8n_webhook_url can't be blank"})
		return
	}
	res := h.assets.TestConnection(c.Request.Context(), params.WebhookURL)
	if !res.Success {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
