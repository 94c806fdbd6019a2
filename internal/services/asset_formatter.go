package services

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/yungbote/pipelines-backend/internal/domain/assets"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

const (
	defaultCurrency   = "USD"
	defaultDateFormat = "%Y-%m-%d"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// AssetFormatter renders one external record as a chat message.
type AssetFormatter interface {
	Format(asset *assets.CustomAsset, record map[string]any) string
}

type assetFormatter struct {
	log *logger.Logger
}

func NewAssetFormatter(log *logger.Logger) AssetFormatter {
	return &assetFormatter{log: log.With("service", "AssetFormatter")}
}

// Format writes "*<asset name>*", a blank line, then "Label: value" for each
// configured field whose value is present. A field that cannot be formatted
// falls back to its plain string form.
func (f *assetFormatter) Format(asset *assets.CustomAsset, record map[string]any) string {
	if asset == nil {
		return ""
	}
	lines := []string{"*" + asset.Name + "*", ""}
	for _, field := range asset.Fields() {
		value, ok := record[field.Key]
		if !ok || isBlank(value) {
			continue
		}
		formatted, err := formatFieldValue(value, field.Type, field.Format)
		if err != nil {
			f.log.Warn("failed to format asset field", "asset_id", asset.ID, "field", field.Key, "error", err)
			formatted = plainString(value)
		}
		lines = append(lines, field.Label+": "+formatted)
	}
	return strings.Join(lines, "\n")
}

func formatFieldValue(value any, fieldType, format string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("format panic: %v", r)
		}
	}()
	switch fieldType {
	case assets.FieldTypeCurrency:
		return formatCurrency(value, format)
	case assets.FieldTypeDate:
		return formatDate(value, format), nil
	default:
		return plainString(value), nil
	}
}

func formatCurrency(value any, code string) (string, error) {
	amount, err := toFloat(value)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		code = defaultCurrency
	}
	return fmt.Sprintf("%s %.2f", code, amount), nil
}

// formatDate renders with a strftime pattern; unparseable input is returned
// as-is.
func formatDate(value any, pattern string) string {
	raw := strings.TrimSpace(plainString(value))
	if strings.TrimSpace(pattern) == "" {
		pattern = defaultDateFormat
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return strftime.Format(pattern, t)
		}
	}
	return plainString(value)
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("not a number: %T", value)
	}
}

func plainString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// isBlank treats nil, false, whitespace-only strings and empty collections as
// absent. Zero numbers are present.
func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return strings.TrimSpace(v) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	}
	return false
}
