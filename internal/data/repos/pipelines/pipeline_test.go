package pipelines

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/data/db"
	"github.com/yungbote/pipelines-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pipelines-backend/internal/domain"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
)

func TestPipelineRepo(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPipelineRepo(gdb, testutil.Logger(t))

	acct := uuid.New()
	other := uuid.New()

	p1 := &types.Pipeline{AccountID: acct, Name: "Sales", Position: 2, Stages: datatypes.JSON(`[{"name":"Lead","order":0}]`)}
	p2 := &types.Pipeline{AccountID: acct, Name: "Support", Position: 1, Stages: datatypes.JSON(`[{"name":"New","order":0}]`)}
	p3 := &types.Pipeline{AccountID: other, Name: "Sales", Stages: datatypes.JSON(`[{"name":"Lead","order":0}]`)}
	for _, p := range []*types.Pipeline{p1, p2, p3} {
		if err := repo.Create(dbc, p); err != nil {
			t.Fatalf("Create(%s): %v", p.Name, err)
		}
		if p.ID == uuid.Nil {
			t.Fatalf("Create should assign an id")
		}
	}

	if got, err := repo.GetByID(dbc, acct, p1.ID); err != nil || got == nil || got.Name != "Sales" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(dbc, other, p1.ID); err != nil || got != nil {
		t.Fatalf("GetByID across accounts: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByName(dbc, other, "Sales"); err != nil || got == nil || got.ID != p3.ID {
		t.Fatalf("GetByName: got=%v err=%v", got, err)
	}

	if taken, err := repo.NameTaken(dbc, acct, "Sales", uuid.Nil); err != nil || !taken {
		t.Fatalf("NameTaken: taken=%v err=%v", taken, err)
	}
	if taken, err := repo.NameTaken(dbc, acct, "Sales", p1.ID); err != nil || taken {
		t.Fatalf("NameTaken excluding self: taken=%v err=%v", taken, err)
	}

	rows, err := repo.ListByAccount(dbc, acct)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByAccount: err=%v len=%d", err, len(rows))
	}
	if rows[0].ID != p2.ID || rows[1].ID != p1.ID {
		t.Fatalf("ListByAccount order: got %s, %s", rows[0].Name, rows[1].Name)
	}

	locked, err := repo.LockByID(dbc, acct, p1.ID)
	if err != nil || locked == nil {
		t.Fatalf("LockByID: got=%v err=%v", locked, err)
	}
	if _, err := repo.LockByID(dbctx.Context{Ctx: ctx}, acct, p1.ID); err == nil {
		t.Fatalf("LockByID without tx should fail")
	}

	if err := repo.UpdateFields(dbc, p1.ID, map[string]interface{}{"description": "deals"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got, _ := repo.GetByID(dbc, acct, p1.ID); got == nil || got.Description != "deals" {
		t.Fatalf("UpdateFields did not persist: %+v", got)
	}

	if ok, err := repo.Delete(dbc, other, p1.ID); err != nil || ok {
		t.Fatalf("Delete across accounts: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Delete(dbc, acct, p1.ID); err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Delete(dbc, acct, p1.ID); err != nil || ok {
		t.Fatalf("second Delete: ok=%v err=%v", ok, err)
	}
}

func TestPipelineRepoUniqueName(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewPipelineRepo(gdb, testutil.Logger(t))

	acct := uuid.New()
	testutil.SeedPipeline(t, dbc.Ctx, tx, acct, "Sales", 0, "Lead")

	// Keep the outer tx usable after the expected failure.
	err := tx.Transaction(func(inner *gorm.DB) error {
		return repo.Create(dbctx.Context{Ctx: dbc.Ctx, Tx: inner}, &types.Pipeline{
			AccountID: acct,
			Name:      "Sales",
			Stages:    datatypes.JSON(`[{"name":"A","order":0}]`),
		})
	})
	if !db.ViolatesIndex(err, "idx_pipeline_account_name", "pipeline.account_id", "pipeline.name") {
		t.Fatalf("expected unique violation on account/name, got %v", err)
	}
}
