package services

import (
	"encoding/json"
	"testing"

	"github.com/yungbote/pipelines-backend/internal/domain/assets"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

func testAsset(t *testing.T, fields ...assets.DisplayField) *assets.CustomAsset {
	t.Helper()
	cfg, err := assets.EncodeDisplayConfig(fields)
	if err != nil {
		t.Fatalf("EncodeDisplayConfig: %v", err)
	}
	return &assets.CustomAsset{Name: "Orders", DisplayConfig: cfg}
}

func TestAssetFormatterFormatsFields(t *testing.T) {
	asset := testAsset(t,
		assets.DisplayField{Key: "number", Label: "Order"},
		assets.DisplayField{Key: "total", Label: "Total", Type: "currency", Format: "BRL"},
		assets.DisplayField{Key: "fee", Label: "Fee", Type: "currency"},
		assets.DisplayField{Key: "placed_at", Label: "Placed", Type: "date", Format: "%d/%m/%Y"},
		assets.DisplayField{Key: "due", Label: "Due", Type: "date"},
		assets.DisplayField{Key: "url", Label: "Link", Type: "link"},
		assets.DisplayField{Key: "missing", Label: "Missing"},
	)
	record := map[string]any{
		"number":    json.Number("1001"),
		"total":     json.Number("199.5"),
		"fee":       "3",
		"placed_at": "2025-11-02T23:03:39Z",
		"due":       "2025-12-01",
		"url":       "https://shop.example/orders/1001",
	}

	got := NewAssetFormatter(logger.Nop()).Format(asset, record)
	want := "*Orders*\n\n" +
		"Order: 1001\n" +
		"Total: BRL 199.50\n" +
		"Fee: USD 3.00\n" +
		"Placed: 02/11/2025\n" +
		"Due: 2025-12-01\n" +
		"Link: https://shop.example/orders/1001"
	if got != want {
		t.Fatalf("Format:\nwant=%q\ngot= %q", want, got)
	}
}

func TestAssetFormatterSkipsBlankValues(t *testing.T) {
	asset := testAsset(t,
		assets.DisplayField{Key: "a", Label: "A"},
		assets.DisplayField{Key: "b", Label: "B"},
		assets.DisplayField{Key: "c", Label: "C"},
		assets.DisplayField{Key: "d", Label: "D"},
		assets.DisplayField{Key: "e", Label: "E"},
		assets.DisplayField{Key: "zero", Label: "Zero"},
	)
	record := map[string]any{
		"a":    nil,
		"b":    "   ",
		"c":    false,
		"d":    []any{},
		"e":    map[string]any{},
		"zero": json.Number("0"),
	}
	got := NewAssetFormatter(logger.Nop()).Format(asset, record)
	if got != "*Orders*\n\nZero: 0" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestAssetFormatterFallsBackPerField(t *testing.T) {
	asset := testAsset(t,
		assets.DisplayField{Key: "total", Label: "Total", Type: "currency"},
		assets.DisplayField{Key: "when", Label: "When", Type: "date"},
		assets.DisplayField{Key: "ok", Label: "OK", Type: "currency"},
	)
	record := map[string]any{
		"total": "call us",
		"when":  "sometime soon",
		"ok":    json.Number("10"),
	}
	got := NewAssetFormatter(logger.Nop()).Format(asset, record)
	want := "*Orders*\n\nTotal: call us\nWhen: sometime soon\nOK: USD 10.00"
	if got != want {
		t.Fatalf("Format:\nwant=%q\ngot= %q", want, got)
	}
}

func TestAssetFormatterNoFields(t *testing.T) {
	asset := &assets.CustomAsset{Name: "Bare"}
	if got := NewAssetFormatter(logger.Nop()).Format(asset, map[string]any{"x": 1}); got != "*Bare*\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
