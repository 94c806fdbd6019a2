package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pipelines-backend/internal/platform/apierr"
)

var errInvalidBody = errors.New("request body must be a JSON object")

// bindWrapped decodes the body into out. A body of the form {"<root>": {...}}
// is unwrapped first, so both wrapped and flat payloads are accepted.
func bindWrapped(c *gin.Context, root string, out any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return apierr.New(http.StatusBadRequest, "invalid_request", errInvalidBody)
	}
	if inner, ok := top[root]; ok && len(inner) > 0 && inner[0] == '{' {
		raw = inner
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	}
	return nil
}

func pathUUID(c *gin.Context, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusNotFound, "not_found", errors.New(what+" not found"))
	}
	return id, nil
}
