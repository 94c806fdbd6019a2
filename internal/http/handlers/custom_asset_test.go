package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pipelines-backend/internal/clients/n8n"
	dataagg "github.com/yungbote/pipelines-backend/internal/data/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/assets"
	"github.com/yungbote/pipelines-backend/internal/http/middleware"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
	"github.com/yungbote/pipelines-backend/internal/services"
)

type fakeAssetService struct {
	services.CustomAssetService

	asset   *assets.CustomAsset
	input   services.CustomAssetInput
	patch   services.CustomAssetPatch
	fetch   services.FetchAssetsRequest
	result  services.FetchAssetsResult
	testURL string
	test    n8n.TestResult
	err     error
}

func (f *fakeAssetService) Create(_ context.Context, accountID uuid.UUID, in services.CustomAssetInput) (*assets.CustomAsset, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	cfg, _ := assets.EncodeDisplayConfig(in.DisplayFields)
	return &assets.CustomAsset{ID: uuid.New(), AccountID: accountID, Name: in.Name, WorkflowID: in.WorkflowID, DisplayConfig: cfg, Enabled: true}, nil
}

func (f *fakeAssetService) ListEnabled(context.Context, uuid.UUID) ([]*assets.CustomAsset, error) {
	return []*assets.CustomAsset{f.asset}, f.err
}

func (f *fakeAssetService) Update(_ context.Context, _ uuid.UUID, _ uuid.UUID, patch services.CustomAssetPatch) (*assets.CustomAsset, error) {
	f.patch = patch
	return f.asset, f.err
}

func (f *fakeAssetService) Delete(context.Context, uuid.UUID, uuid.UUID) error { return f.err }

func (f *fakeAssetService) FetchAssets(_ context.Context, _ uuid.UUID, _ uuid.UUID, req services.FetchAssetsRequest) (services.FetchAssetsResult, error) {
	f.fetch = req
	return f.result, f.err
}

func (f *fakeAssetService) TestConnection(_ context.Context, webhookURL string) n8n.TestResult {
	f.testURL = webhookURL
	return f.test
}

func newAssetRouter(svc services.CustomAssetService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCustomAssetHandler(logger.Nop(), svc, "https://n8n.example.com")
	r := gin.New()
	g := r.Group("/api/accounts/:account_id", middleware.AccountScope())
	g.GET("/custom_assets", h.List)
	g.POST("/custom_assets", h.Create)
	g.POST("/custom_assets/test_connection", h.TestConnection)
	g.PATCH("/custom_assets/:id", h.Update)
	g.DELETE("/custom_assets/:id", h.Delete)
	g.POST("/custom_assets/:id/fetch_assets", h.FetchAssets)
	return r
}

func TestCustomAssetHandlerCreate(t *testing.T) {
	svc := &fakeAssetService{}
	r := newAssetRouter(svc)

	body := `{"custom_asset":{"name":"Orders","asset_type":"order","n8n_webhook_url":"https://n8n.example.com/webhook/x","n8n_workflow_id":"wf-1","enabled":false,
		"display_config":{"fields":[{"key":"total","label":"Total","type":"currency","format":"BRL"}]}}}`
	rec := doJSON(t, r, http.MethodPost, "/api/accounts/"+uuid.NewString()+"/custom_assets", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "Orders", svc.input.Name)
	require.NotNil(t, svc.input.Enabled)
	require.False(t, *svc.input.Enabled)
	require.Equal(t, []assets.DisplayField{{Key: "total", Label: "Total", Type: "currency", Format: "BRL"}}, svc.input.DisplayFields)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "https://n8n.example.com/workflow/wf-1", out["workflow_link"])
}

func TestCustomAssetHandlerCreateInvalid(t *testing.T) {
	svc := &fakeAssetService{err: dataagg.MapError("Assets.CustomAsset.Create", assets.ValidateWebhookURL("ftp://x"))}
	r := newAssetRouter(svc)
	rec := doJSON(t, r, http.MethodPost, "/api/accounts/"+uuid.NewString()+"/custom_assets", `{"name":"x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "n8n_webhook_url is invalid")
}

func TestCustomAssetHandlerListAndUpdate(t *testing.T) {
	svc := &fakeAssetService{asset: &assets.CustomAsset{ID: uuid.New(), Name: "Orders", Enabled: true}}
	r := newAssetRouter(svc)
	acct := uuid.NewString()

	rec := doJSON(t, r, http.MethodGet, "/api/accounts/"+acct+"/custom_assets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, map[string]any{"fields": []any{}}, list[0]["display_config"])

	rec = doJSON(t, r, http.MethodPatch, "/api/accounts/"+acct+"/custom_assets/"+svc.asset.ID.String(), `{"enabled":false,"display_config":{"fields":[]}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.patch.Enabled)
	require.Nil(t, svc.patch.Name)
	require.NotNil(t, svc.patch.DisplayFields)
	require.Empty(t, *svc.patch.DisplayFields)
}

func TestCustomAssetHandlerDelete(t *testing.T) {
	svc := &fakeAssetService{}
	r := newAssetRouter(svc)
	rec := doJSON(t, r, http.MethodDelete, "/api/accounts/"+uuid.NewString()+"/custom_assets/"+uuid.NewString(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	svc.err = dataagg.MapError("Assets.CustomAsset.Delete", assets.ErrNotFound)
	rec = doJSON(t, r, http.MethodDelete, "/api/accounts/"+uuid.NewString()+"/custom_assets/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomAssetHandlerFetchAssets(t *testing.T) {
	svc := &fakeAssetService{result: services.FetchAssetsResult{
		Assets:    []n8n.Record{{"number": json.Number("7")}},
		Total:     1,
		Formatted: []string{"*Orders*\n\nOrder: 7"},
	}}
	r := newAssetRouter(svc)

	body := `{"contact":{"id":"42","email":"a@b.c","phone_number":"+1","name":"Ana","custom_attributes":{"tier":"gold"}},"search_query":"last","filters":{"status":"open"}}`
	rec := doJSON(t, r, http.MethodPost, "/api/accounts/"+uuid.NewString()+"/custom_assets/"+uuid.NewString()+"/fetch_assets", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"assets":[{"number":7}],"total":1,"formatted":["*Orders*\n\nOrder: 7"]}`, rec.Body.String())
	require.Equal(t, "42", svc.fetch.Contact.ID)
	require.Equal(t, "+1", svc.fetch.Contact.Phone)
	require.Equal(t, "gold", svc.fetch.Contact.CustomAttributes["tier"])
	require.Equal(t, "open", svc.fetch.Filters["status"])

	svc.err = dataagg.MapError("Assets.CustomAsset.FetchAssets", assets.ErrDisabled)
	rec = doJSON(t, r, http.MethodPost, "/api/accounts/"+uuid.NewString()+"/custom_assets/"+uuid.NewString()+"/fetch_assets", `{}`)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestCustomAssetHandlerTestConnection(t *testing.T) {
	svc := &fakeAssetService{test: n8n.TestResult{Success: true, Status: 200, Message: "Connection successful!"}}
	r := newAssetRouter(svc)
	path := "/api/accounts/" + uuid.NewString() + "/custom_assets/test_connection"

	rec := doJSON(t, r, http.MethodPost, path, `{"n8n_webhook_url":"https://n8n.example.com/webhook/x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"status":200,"message":"Connection successful!"}`, rec.Body.String())
	require.Equal(t, "https://n8n.example.com/webhook/x", svc.testURL)

	svc.test = n8n.TestResult{Success: false, Status: 500, Error: "Connection failed"}
	rec = doJSON(t, r, http.MethodPost, path, `{"n8n_webhook_url":"https://n8n.example.com/webhook/x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.JSONEq(t, `{"success":false,"status":500,"error":"Connection failed"}`, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, path, `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
