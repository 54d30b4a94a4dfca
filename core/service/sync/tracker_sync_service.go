// Package sync runs the mailbox-to-store pipeline: search, capped fetch,
// parse, reconcile per identity key, return full state.
package sync

import (
	"context"
	"fmt"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/in"
	"tracker_server/core/port/out"
	"tracker_server/core/service/parse"
	"tracker_server/pkg/apperr"
	"tracker_server/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// TokenProvider yields a usable mailbox token for a user, refreshing as
// needed. Implemented by the auth service.
type TokenProvider interface {
	Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error)
}

// BatchParser turns fetched messages into deduplicated orders.
// Implemented by parse.Parser.
type BatchParser interface {
	ParseBatch(msgs []*domain.RawMessage, now time.Time) ([]*domain.Order, []parse.Result)
}

// SummaryInvalidator drops cached order views after writes. May be nil.
type SummaryInvalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// Config bounds a sync run.
type Config struct {
	MaxMessages   int
	SearchQueries []string
}

// Service implements in.SyncService.
type Service struct {
	mailbox   out.MailboxPort
	orderRepo out.OrderRepository
	msgCache  out.MessageCache
	lock      out.SyncLock
	tokens    TokenProvider
	parser    BatchParser
	summaries SummaryInvalidator
	cfg       Config
	log       *logger.Logger
}

func NewService(
	mailbox out.MailboxPort,
	orderRepo out.OrderRepository,
	msgCache out.MessageCache,
	lock out.SyncLock,
	tokens TokenProvider,
	parser BatchParser,
	summaries SummaryInvalidator,
	cfg Config,
) in.SyncService {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 20
	}
	return &Service{
		mailbox:   mailbox,
		orderRepo: orderRepo,
		msgCache:  msgCache,
		lock:      lock,
		tokens:    tokens,
		parser:    parser,
		summaries: summaries,
		cfg:       cfg,
		log:       logger.Default().WithField("component", "sync_service"),
	}
}

// Sync runs one pipeline invocation for the user. Writes for one user are
// serialized by the sync lock; a second overlapping call fails fast. The
// result carries the user's full current order set, not the delta.
func (s *Service) Sync(ctx context.Context, userID uuid.UUID) (*domain.SyncResult, error) {
	acquired, err := s.lock.Acquire(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, apperr.SyncInProgress()
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), userID.String()); err != nil {
			s.log.WithError(err).Warn("failed to release sync lock for user %s", userID)
		}
	}()

	start := time.Now()
	token, err := s.tokens.Token(ctx, userID)
	if err != nil {
		return nil, err
	}

	refs, err := s.mailbox.SearchAll(ctx, token, s.cfg.SearchQueries, int64(s.cfg.MaxMessages))
	if err != nil {
		return nil, apperr.MailboxError("search", err)
	}
	if len(refs) > s.cfg.MaxMessages {
		refs = refs[:s.cfg.MaxMessages]
	}

	msgs := s.fetchMessages(ctx, userID, token, refs)

	orders, results := s.parser.ParseBatch(msgs, time.Now())

	upserted := 0
	for _, order := range orders {
		order.UserID = userID
		if _, err := s.orderRepo.Upsert(ctx, order); err != nil {
			// One failed row does not abort the batch.
			s.log.WithError(err).WithField("order_key", order.OrderKey).
				Error("upsert failed, skipping order")
			continue
		}
		upserted++
	}

	if upserted > 0 && s.summaries != nil {
		s.summaries.InvalidateUser(ctx, userID)
	}

	all, _, err := s.orderRepo.List(ctx, &domain.OrderFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list orders after sync: %w", err)
	}

	skipped := 0
	for _, r := range results {
		if r.Order == nil {
			skipped++
		}
	}

	s.log.WithDuration(time.Since(start)).
		WithField("user_id", userID.String()).
		Info("sync complete: fetched=%d parsed=%d upserted=%d skipped=%d",
			len(msgs), len(orders), upserted, skipped)

	return &domain.SyncResult{
		Orders:   all,
		Fetched:  len(msgs),
		Parsed:   len(orders),
		Upserted: upserted,
		Skipped:  skipped,
	}, nil
}

// fetchMessages resolves refs to full messages, serving from the raw
// message cache first and writing fresh fetches back to it. Failed
// fetches are skipped. Output follows ref order so the parser's
// first-wins dedup stays deterministic.
func (s *Service) fetchMessages(ctx context.Context, userID uuid.UUID, token *oauth2.Token, refs []domain.MessageRef) []*domain.RawMessage {
	msgs := make([]*domain.RawMessage, 0, len(refs))
	missing := make([]domain.MessageRef, 0, len(refs))
	byID := make(map[string]*domain.RawMessage, len(refs))

	for _, ref := range refs {
		if s.msgCache != nil {
			cached, err := s.msgCache.Get(ctx, userID.String(), ref.ID)
			if err == nil && cached != nil {
				byID[ref.ID] = cached
				continue
			}
		}
		missing = append(missing, ref)
	}

	if len(missing) > 0 {
		for _, msg := range s.mailbox.FetchAll(ctx, token, missing) {
			if msg == nil {
				continue
			}
			byID[msg.ID] = msg
			if s.msgCache != nil {
				if err := s.msgCache.Put(ctx, userID.String(), msg); err != nil {
					s.log.WithError(err).Debug("message cache write failed for %s", msg.ID)
				}
			}
		}
	}

	for _, ref := range refs {
		if msg, ok := byID[ref.ID]; ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
