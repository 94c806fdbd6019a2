package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/clients/n8n"
	dataagg "github.com/yungbote/pipelines-backend/internal/data/aggregates"
	"github.com/yungbote/pipelines-backend/internal/data/repos"
	"github.com/yungbote/pipelines-backend/internal/data/repos/testutil"
	"github.com/yungbote/pipelines-backend/internal/domain/pipelines"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []pipelines.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev pipelines.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Types() []pipelines.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]pipelines.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeN8N struct {
	records  []n8n.Record
	lastURL  string
	lastBody n8n.FetchPayload
	calls    int
	test     n8n.TestResult
}

func (f *fakeN8N) FetchList(_ context.Context, webhookURL string, payload n8n.FetchPayload) []n8n.Record {
	f.calls++
	f.lastURL = webhookURL
	f.lastBody = payload
	return f.records
}

func (f *fakeN8N) TestConnection(_ context.Context, webhookURL string) n8n.TestResult {
	f.lastURL = webhookURL
	return f.test
}

// testStack wires every service over one rolled-back transaction.
type testStack struct {
	ctx      context.Context
	tx       *gorm.DB
	dbc      dbctx.Context
	repos    repos.Set
	registry AttributeRegistry
	sweeper  ConversationAttributeSweeper
	events   *recordingPublisher
	pipes    PipelineService
	assets   CustomAssetService
	n8n      *fakeN8N
}

func newTestStack(t *testing.T, sweepBatch int) *testStack {
	t.Helper()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	set := repos.NewSet(tx, log)
	registry := NewAttributeRegistry(tx, log, set.Definitions)
	sweeper := NewConversationSweeper(tx, log, set.Conversation, nil, sweepBatch)
	events := &recordingPublisher{}
	agg := dataagg.NewPipelineAggregate(dataagg.PipelineAggregateDeps{
		Base:      dataagg.BaseDeps{DB: tx, Log: log},
		Pipelines: set.Pipelines,
		Registry:  registry,
		Sweeper:   sweeper,
		Events:    events,
	})
	fake := &fakeN8N{}
	return &testStack{
		ctx:      ctx,
		tx:       tx,
		dbc:      dbctx.Context{Ctx: ctx, Tx: tx},
		repos:    set,
		registry: registry,
		sweeper:  sweeper,
		events:   events,
		pipes:    NewPipelineService(tx, log, agg, set.Pipelines, registry, sweeper),
		assets:   NewCustomAssetService(tx, log, set.CustomAssets, fake, nil),
		n8n:      fake,
	}
}
