package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/pipelines-backend/internal/services"
)

// pipelineFile is the document read by `apply -f`:
//
//	pipelines:
//	  - name: Sales
//	    description: Inbound leads
//	    position: 1
//	    stages:
//	      - name: New
//	        color: "#3b82f6"
//	      - name: Won
type pipelineFile struct {
	Pipelines []pipelineEntry `yaml:"pipelines"`
}

type pipelineEntry struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Position    *int             `yaml:"position"`
	Stages      []map[string]any `yaml:"stages"`
}

// parsePipelineFile decodes r into apply specs. Stage validation is left to the
// aggregate so the file and the API report the same errors.
func parsePipelineFile(r io.Reader) ([]services.PipelineSpec, error) {
	var doc pipelineFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("pipeline file is empty")
		}
		return nil, fmt.Errorf("decode pipeline file: %w", err)
	}
	if len(doc.Pipelines) == 0 {
		return nil, fmt.Errorf("pipeline file lists no pipelines")
	}

	seen := make(map[string]int, len(doc.Pipelines))
	out := make([]services.PipelineSpec, 0, len(doc.Pipelines))
	for i, p := range doc.Pipelines {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("pipelines[%d]: name is required", i)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("pipelines[%d]: name %q already used by pipelines[%d]", i, name, prev)
		}
		seen[name] = i

		var stages json.RawMessage
		if p.Stages != nil {
			raw, err := json.Marshal(p.Stages)
			if err != nil {
				return nil, fmt.Errorf("pipelines[%d]: encode stages: %w", i, err)
			}
			stages = raw
		}
		out = append(out, services.PipelineSpec{
			Name:        name,
			Description: p.Description,
			Position:    p.Position,
			Stages:      stages,
		})
	}
	return out, nil
}
