package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/pipelines-backend/internal/data/repos/testutil"
	"github.com/yungbote/pipelines-backend/internal/domain/conversations"
)

func TestConversationSweeperPurge(t *testing.T) {
	st := newTestStack(t, 2)
	acct := uuid.New()
	const key = "pipeline_sales_stage"

	tagged := make([]uuid.UUID, 0, 5)
	for i := 0; i < 5; i++ {
		c := testutil.SeedConversation(t, st.ctx, st.tx, acct, `{"zeta":1,"pipeline_sales_stage":"Lead","alpha":"x"}`)
		tagged = append(tagged, c.ID)
	}
	untouched := testutil.SeedConversation(t, st.ctx, st.tx, acct, `{"pipeline_sales_stage_1":"Lead"}`)
	other := testutil.SeedConversation(t, st.ctx, st.tx, uuid.New(), `{"pipeline_sales_stage":"Lead"}`)

	n, err := st.sweeper.Count(st.ctx, acct, key)
	if err != nil || n != 5 {
		t.Fatalf("Count before: n=%d err=%v", n, err)
	}

	res := st.sweeper.Purge(st.ctx, acct, key)
	if err := res.Err(); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if res.Scanned != 5 || res.Modified != 5 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	for _, id := range tagged {
		row, err := st.repos.Conversation.GetByID(st.dbc, id)
		if err != nil || row == nil {
			t.Fatalf("GetByID %s: row=%v err=%v", id, row, err)
		}
		attrs, err := row.Attributes()
		if err != nil {
			t.Fatalf("Attributes: %v", err)
		}
		if attrs.Has(key) {
			t.Fatalf("conversation %s still carries %s", id, key)
		}
		if got := attrs.Keys(); len(got) != 2 || got[0] != "zeta" || got[1] != "alpha" {
			t.Fatalf("remaining keys out of order: %v", got)
		}
	}

	for _, id := range []uuid.UUID{untouched.ID, other.ID} {
		row, err := st.repos.Conversation.GetByID(st.dbc, id)
		if err != nil || row == nil {
			t.Fatalf("GetByID %s: row=%v err=%v", id, row, err)
		}
		attrs, err := row.Attributes()
		if err != nil || attrs.Len() != 1 {
			t.Fatalf("conversation %s should be untouched: attrs=%v err=%v", id, attrs, err)
		}
	}

	n, err = st.sweeper.Count(st.ctx, acct, key)
	if err != nil || n != 0 {
		t.Fatalf("Count after: n=%d err=%v", n, err)
	}
}

func TestConversationSweeperPurgeIsRepeatable(t *testing.T) {
	st := newTestStack(t, 0)
	acct := uuid.New()
	testutil.SeedConversation(t, st.ctx, st.tx, acct, `{"k":"v"}`)

	first := st.sweeper.Purge(st.ctx, acct, "k")
	second := st.sweeper.Purge(st.ctx, acct, "k")
	if first.Modified != 1 || second.Scanned != 0 || second.Modified != 0 {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
}

func TestConversationSweeperCancelledContext(t *testing.T) {
	st := newTestStack(t, 0)
	acct := uuid.New()
	testutil.SeedConversation(t, st.ctx, st.tx, acct, `{"k":"v"}`)

	ctx, cancel := context.WithCancel(st.ctx)
	cancel()
	res := st.sweeper.Purge(ctx, acct, "k")
	if !errors.Is(res.Aborted, context.Canceled) {
		t.Fatalf("expected aborted with context.Canceled, got %v", res.Aborted)
	}
	if !errors.Is(res.Err(), conversations.ErrPartialSweep) {
		t.Fatalf("expected ErrPartialSweep, got %v", res.Err())
	}
}

func TestConversationSweeperIgnoresEmptyKey(t *testing.T) {
	st := newTestStack(t, 0)
	res := st.sweeper.Purge(st.ctx, uuid.New(), "")
	if res.Scanned != 0 || res.Err() != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}
