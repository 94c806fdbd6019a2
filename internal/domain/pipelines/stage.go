package pipelines

import (
	"bytes"
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gorm.io/datatypes"
)

// Stage is one column of a pipeline. Keys other than name and order are
// carried through untouched, in the order they arrived.
type Stage struct {
	Name  string
	Order int
	Extra *orderedmap.OrderedMap[string, json.RawMessage]
}

func (s Stage) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	name, err := json.Marshal(s.Name)
	if err != nil {
		return nil, err
	}
	order, err := json.Marshal(s.Order)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"name":`)
	buf.Write(name)
	buf.WriteString(`,"order":`)
	buf.Write(order)

	if s.Extra != nil {
		for pair := s.Extra.Oldest(); pair != nil; pair = pair.Next() {
			kb, err := json.Marshal(pair.Key)
			if err != nil {
				return nil, err
			}
			buf.WriteByte(',')
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(pair.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// StageSet is a validated, normalized stage list. The zero value is empty and
// never produced by ValidateStages.
type StageSet struct {
	stages []Stage
}

// ValidateStages checks that raw is a non-empty JSON array of objects, each
// with a non-blank name that does not repeat an earlier one (after trimming).
// Names are stored trimmed and order is rewritten to the list position.
func ValidateStages(raw []byte) (StageSet, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return StageSet{}, InvalidShape()
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return StageSet{}, InvalidShape()
	}
	if len(items) == 0 {
		return StageSet{}, fieldErr("stages", -1, ErrEmptyStageList)
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]Stage, 0, len(items))
	for i, item := range items {
		obj := orderedmap.New[string, json.RawMessage]()
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return StageSet{}, fieldErr("stages", i, ErrMissingStageName)
		}
		if err := json.Unmarshal(item, obj); err != nil {
			return StageSet{}, fieldErr("stages", i, ErrMissingStageName)
		}
		var name string
		if rawName, ok := obj.Get("name"); !ok || json.Unmarshal(rawName, &name) != nil {
			return StageSet{}, fieldErr("stages", i, ErrMissingStageName)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return StageSet{}, fieldErr("stages", i, ErrMissingStageName)
		}
		if _, dup := seen[name]; dup {
			return StageSet{}, fieldErr("stages", i, ErrDuplicateStageName)
		}
		seen[name] = struct{}{}

		obj.Delete("name")
		obj.Delete("order")
		if obj.Len() == 0 {
			obj = nil
		}
		out = append(out, Stage{Name: name, Order: i, Extra: obj})
	}
	return StageSet{stages: out}, nil
}

// Names returns the stage names in list order.
func (s StageSet) Names() []string {
	out := make([]string, 0, len(s.stages))
	for _, st := range s.stages {
		out = append(out, st.Name)
	}
	return out
}

func (s StageSet) Stages() []Stage {
	out := make([]Stage, len(s.stages))
	copy(out, s.stages)
	return out
}

func (s StageSet) Len() int { return len(s.stages) }

// JSON renders the normalized list for persistence.
func (s StageSet) JSON() (datatypes.JSON, error) {
	stages := s.stages
	if stages == nil {
		stages = []Stage{}
	}
	b, err := json.Marshal(stages)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
