package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pipelines-backend/internal/data/repos"
	"github.com/yungbote/pipelines-backend/internal/domain/conversations"
	"github.com/yungbote/pipelines-backend/internal/observability"
	"github.com/yungbote/pipelines-backend/internal/platform/dbctx"
	"github.com/yungbote/pipelines-backend/internal/platform/logger"
)

const DefaultSweepBatchSize = 200

// ConversationAttributeSweeper removes one custom attribute key from every
// conversation of an account.
type ConversationAttributeSweeper interface {
	// Purge never fails as a whole. Per-record failures are counted and
	// skipped; a failed page read stops the scan and sets Aborted.
	Purge(ctx context.Context, accountID uuid.UUID, key string) conversations.SweepResult
	// Count reports how many conversations currently carry key.
	Count(ctx context.Context, accountID uuid.UUID, key string) (int64, error)
}

type conversationSweeper struct {
	db            *gorm.DB
	log           *logger.Logger
	conversations repos.ConversationRepo
	metrics       *observability.Metrics
	batchSize     int
}

func NewConversationSweeper(db *gorm.DB, log *logger.Logger, conversationRepo repos.ConversationRepo, metrics *observability.Metrics, batchSize int) ConversationAttributeSweeper {
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &conversationSweeper{
		db:            db,
		log:           log.With("service", "ConversationAttributeSweeper"),
		conversations: conversationRepo,
		metrics:       metrics,
		batchSize:     batchSize,
	}
}

func (s *conversationSweeper) Purge(ctx context.Context, accountID uuid.UUID, key string) conversations.SweepResult {
	start := time.Now()
	res := conversations.SweepResult{Key: key}
	if accountID == uuid.Nil || key == "" {
		return res
	}

	var after *uuid.UUID
	for {
		if err := ctx.Err(); err != nil {
			res.Aborted = err
			break
		}
		page, err := s.conversations.ListWithAttributeKey(dbctx.Context{Ctx: ctx, Tx: s.db}, accountID, key, after, s.batchSize)
		if err != nil {
			res.Aborted = err
			s.log.Error("attribute sweep page read failed", "account_id", accountID, "attribute_key", key, "scanned", res.Scanned, "error", err)
			break
		}
		if len(page) == 0 {
			break
		}
		for _, row := range page {
			res.Scanned++
			modified, err := s.purgeOne(ctx, row.ID, key)
			if err != nil {
				res.RecordFailure(row.ID)
				s.log.Warn("attribute sweep record failed", "conversation_id", row.ID, "attribute_key", key, "error", err)
				continue
			}
			if modified {
				res.Modified++
			}
		}
		last := page[len(page)-1].ID
		after = &last
		if len(page) < s.batchSize {
			break
		}
	}

	outcome := "clean"
	switch {
	case res.Aborted != nil:
		outcome = "aborted"
	case res.Failed > 0:
		outcome = "partial"
	}
	s.metrics.ObserveSweep(outcome, res.Scanned, res.Modified, res.Failed, time.Since(start))
	s.log.Info("attribute sweep finished",
		"account_id", accountID,
		"attribute_key", key,
		"outcome", outcome,
		"scanned", res.Scanned,
		"modified", res.Modified,
		"failed", res.Failed,
	)
	return res
}

// purgeOne locks and rewrites a single conversation in its own transaction.
// A record that lost the key since the page was read is left untouched.
func (s *conversationSweeper) purgeOne(ctx context.Context, id uuid.UUID, key string) (bool, error) {
	modified := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := s.conversations.LockByID(dbc, id)
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
		attrs, err := row.Attributes()
		if err != nil {
			return fmt.Errorf("decode custom attributes: %w", err)
		}
		if !attrs.Delete(key) {
			return nil
		}
		raw, err := attrs.MarshalJSON()
		if err != nil {
			return err
		}
		if err := s.conversations.UpdateFields(dbc, id, map[string]interface{}{
			"custom_attributes": datatypes.JSON(raw),
		}); err != nil {
			return err
		}
		modified = true
		return nil
	})
	return modified, err
}

func (s *conversationSweeper) Count(ctx context.Context, accountID uuid.UUID, key string) (int64, error) {
	return s.conversations.CountWithAttributeKey(dbctx.Context{Ctx: ctx, Tx: s.db}, accountID, key)
}
