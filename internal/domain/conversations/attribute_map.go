package conversations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var ErrNotAnObject = errors.New("custom attributes must be a JSON object")

// AttributeMap is an insertion-ordered string-keyed map of raw JSON values.
// Values are never reinterpreted, so round-tripping leaves untouched keys
// byte-for-byte identical apart from whitespace.
type AttributeMap struct {
	m *orderedmap.OrderedMap[string, json.RawMessage]
}

func NewAttributeMap() *AttributeMap {
	return &AttributeMap{m: orderedmap.New[string, json.RawMessage]()}
}

// ParseAttributeMap decodes a JSON object. Empty input and null decode to an
// empty map.
func ParseAttributeMap(raw []byte) (*AttributeMap, error) {
	out := NewAttributeMap()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotAnObject
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, ErrNotAnObject
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		out.m.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *AttributeMap) Len() int { return a.m.Len() }

func (a *AttributeMap) Has(key string) bool {
	_, ok := a.m.Get(key)
	return ok
}

func (a *AttributeMap) Get(key string) (json.RawMessage, bool) {
	return a.m.Get(key)
}

func (a *AttributeMap) Set(key string, val json.RawMessage) {
	a.m.Set(key, val)
}

// Delete removes key and reports whether it was present.
func (a *AttributeMap) Delete(key string) bool {
	_, ok := a.m.Delete(key)
	return ok
}

func (a *AttributeMap) Keys() []string {
	out := make([]string, 0, a.m.Len())
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func (a *AttributeMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		if len(pair.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(pair.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
