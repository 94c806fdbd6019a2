package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pipelines-backend/internal/domain/aggregates"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/http/middleware"
	"github.com/yungbote/pipelines-backend/internal/http/response"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
	"github.com/yungbote/pipelines-backend/internal/services"
)

type PipelineHandler struct {
	log       *logger.Logger
	pipelines services.PipelineService
}

func NewPipelineHandler(log *logger.Logger, pipelineService services.PipelineService) *PipelineHandler {
	return &PipelineHandler{
		log:       log.With("handler", "PipelineHandler"),
		pipelines: pipelineService,
	}
}

type pipelineParams struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Position    *int            `json:"position"`
	Stages      json.RawMessage `json:"stages"`
}

type pipelineJSON struct {
	ID                    uuid.UUID       `json:"id"`
	AccountID             uuid.UUID       `json:"account_id"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	Position              int             `json:"position"`
	Stages                json.RawMessage `json:"stages"`
	AttributeDefinitionID *uuid.UUID      `json:"attribute_definition_id"`
	AttributeKey          string          `json:"attribute_key,omitempty"`
	AttributeValues       []string        `json:"attribute_values,omitempty"`
	ConversationsCount    *int64          `json:"conversations_count,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func renderPipeline(p *pipelines.Pipeline, def *attributes.Definition) pipelineJSON {
	out := pipelineJSON{
		ID:                    p.ID,
		AccountID:             p.AccountID,
		Name:                  p.Name,
		Description:           p.Description,
		Position:              p.Position,
		Stages:                json.RawMessage(p.Stages),
		AttributeDefinitionID: p.AttributeDefinitionID,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if len(out.Stages) == 0 {
		out.Stages = json.RawMessage("[]")
	}
	if def != nil {
		out.AttributeKey = def.AttributeKey
		out.AttributeValues = def.ValueList()
	}
	return out
}

// POST /api/accounts/:account_id/pipelines
func (h *PipelineHandler) Create(c *gin.Context) {
	var params pipelineParams
	if err := bindWrapped(c, "pipeline", &params); err != nil {
		response.RespondErr(c, err)
		return
	}
	in := aggregates.CreatePipelineInput{
		AccountID: middleware.AccountID(c),
		Stages:    params.Stages,
	}
	if params.Name != nil {
		in.Name = *params.Name
	}
	if params.Description != nil {
		in.Description = *params.Description
	}
	if params.Position != nil {
		in.Position = *params.Position
	}
	res, err := h.pipelines.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, renderPipeline(res.Pipeline, res.Definition))
}

// GET /api/accounts/:account_id/pipelines/:id
func (h *PipelineHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id", "pipeline")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	view, err := h.pipelines.Get(c.Request.Context(), middleware.AccountID(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out := renderPipeline(view.Pipeline, view.Definition)
	count := view.ConversationsCount
	out.ConversationsCount = &count
	response.RespondOK(c, out)
}

// PATCH /api/accounts/:account_id/pipelines/:id
func (h *PipelineHandler) Update(c *gin.Context) {
	id, err := pathUUID(c, "id", "pipeline")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var params pipelineParams
	if err := bindWrapped(c, "pipeline", &params); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.pipelines.Update(c.Request.Context(), aggregates.UpdatePipelineInput{
		AccountID:  middleware.AccountID(c),
		PipelineID: id,
		Patch: aggregates.PipelinePatch{
			Name:        params.Name,
			Description: params.Description,
			Position:    params.Position,
			Stages:      params.Stages,
		},
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, renderPipeline(res.Pipeline, res.Definition))
}

// POST /api/accounts/:account_id/pipelines/:id/reorder_stages
func (h *PipelineHandler) ReorderStages(c *gin.Context) {
	id, err := pathUUID(c, "id", "pipeline")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var params struct {
		Stages json.RawMessage `json:"stages"`
	}
	if err := bindWrapped(c, "pipeline", &params); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.pipelines.ReorderStages(c.Request.Context(), aggregates.ReorderStagesInput{
		AccountID:  middleware.AccountID(c),
		PipelineID: id,
		Stages:     params.Stages,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, renderPipeline(res.Pipeline, res.Definition))
}

// DELETE /api/accounts/:account_id/pipelines/:id
func (h *PipelineHandler) Delete(c *gin.Context) {
	id, err := pathUUID(c, "id", "pipeline")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.pipelines.Delete(c.Request.Context(), aggregates.DeletePipelineInput{
		AccountID:  middleware.AccountID(c),
		PipelineID: id,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if serr := res.Sweep.Err(); serr != nil {
		h.log.Warn("pipeline deleted with incomplete sweep", "pipeline_id", id, "error", serr)
	}
	c.Status(http.StatusNoContent)
}
