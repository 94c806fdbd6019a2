package services

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/pipelines-backend/internal/data/repos/testutil"
	"github.com/yungbote/pipelines-backend/internal/domain/attributes"
)

func TestAttributeRegistryMint(t *testing.T) {
	st := newTestStack(t, 0)
	acct := uuid.New()

	def, err := st.registry.Mint(st.dbc, attributes.MintInput{
		AccountID:   acct,
		DisplayName: "Órdenes - Stage",
		KeyHint:     "pipeline_Órdenes de Compra_stage",
		Values:      []string{"Lead", "Won"},
		Description: "Pipeline stages for Órdenes de Compra",
	})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if def.AttributeKey != "pipeline_ordenes_de_compra_stage" {
		t.Fatalf("key: %q", def.AttributeKey)
	}
	if def.AttributeModel != attributes.ModelConversationAttribute || def.DisplayType != attributes.DisplayTypeList {
		t.Fatalf("model/display type: %q/%q", def.AttributeModel, def.DisplayType)
	}

	got, err := st.registry.Get(st.dbc, def.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got.ValueList(), []string{"Lead", "Won"}) {
		t.Fatalf("values: %v", got.ValueList())
	}
	if got.DisplayName != "Órdenes - Stage" || got.Description != "Pipeline stages for Órdenes de Compra" {
		t.Fatalf("display/description: %q/%q", got.DisplayName, got.Description)
	}
}

func TestAttributeRegistryMintSuffixesTakenKeys(t *testing.T) {
	st := newTestStack(t, 0)
	acct := uuid.New()
	testutil.SeedDefinition(t, st.ctx, st.tx, acct, "pipeline_sales_stage")
	testutil.SeedDefinition(t, st.ctx, st.tx, acct, "pipeline_sales_stage_1")
	testutil.SeedDefinition(t, st.ctx, st.tx, uuid.New(), "pipeline_sales_stage_2")

	def, err := st.registry.Mint(st.dbc, attributes.MintInput{AccountID: acct, KeyHint: "pipeline_Sales_stage", Values: []string{"A"}})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if def.AttributeKey != "pipeline_sales_stage_2" {
		t.Fatalf("expected next free suffix, got %q", def.AttributeKey)
	}
}

func TestAttributeRegistryUpdateValuesKeepsKey(t *testing.T) {
	st := newTestStack(t, 0)
	acct := uuid.New()
	seeded := testutil.SeedDefinition(t, st.ctx, st.tx, acct, "pipeline_sales_stage", "Lead")

	if err := st.registry.UpdateValues(st.dbc, seeded.ID, []string{"Won", "Lead"}, "Pipeline stages for Renamed"); err != nil {
		t.Fatalf("UpdateValues: %v", err)
	}
	got, err := st.registry.Get(st.dbc, seeded.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AttributeKey != "pipeline_sales_stage" {
		t.Fatalf("key changed: %q", got.AttributeKey)
	}
	if !reflect.DeepEqual(got.ValueList(), []string{"Won", "Lead"}) || got.Description != "Pipeline stages for Renamed" {
		t.Fatalf("unexpected definition: values=%v desc=%q", got.ValueList(), got.Description)
	}

	if err := st.registry.UpdateValues(st.dbc, uuid.New(), []string{"x"}, ""); !errors.Is(err, attributes.ErrDefinitionNotFound) {
		t.Fatalf("missing definition: expected ErrDefinitionNotFound, got %v", err)
	}
}

func TestAttributeRegistryDeleteIsIdempotent(t *testing.T) {
	st := newTestStack(t, 0)
	seeded := testutil.SeedDefinition(t, st.ctx, st.tx, uuid.New(), "k", "a")

	for i := 0; i < 2; i++ {
		if err := st.registry.Delete(st.dbc, seeded.ID); err != nil {
			t.Fatalf("Delete #%d: %v", i+1, err)
		}
	}
	if _, err := st.registry.Get(st.dbc, seeded.ID); !errors.Is(err, attributes.ErrDefinitionNotFound) {
		t.Fatalf("expected ErrDefinitionNotFound after delete, got %v", err)
	}
}

func TestAttributeRegistryMintRequiresAccount(t *testing.T) {
	st := newTestStack(t, 0)
	if _, err := st.registry.Mint(st.dbc, attributes.MintInput{KeyHint: "k"}); !errors.Is(err, attributes.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
