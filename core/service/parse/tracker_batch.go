package parse

import (
	"time"

	"tracker_server/core/domain"
	"tracker_server/pkg/logger"
)

// Skip reasons reported per message.
const (
	SkipNilMessage  = "nil_message"
	SkipNotRelevant = "not_relevant"
	SkipParseFailed = "parse_failed"
	SkipDuplicate   = "duplicate_in_batch"
)

// Result is the per-message outcome of a batch parse. Exactly one of
// Order or SkipReason is set.
type Result struct {
	MessageID  string        `json:"message_id"`
	Order      *domain.Order `json:"order,omitempty"`
	SkipReason string        `json:"skip_reason,omitempty"`
}

// Parser runs the extraction pipeline over message batches.
type Parser struct {
	platformKeyword string
	log             *logger.Logger
}

func NewParser(platformKeyword string) *Parser {
	return &Parser{
		platformKeyword: platformKeyword,
		log:             logger.Default().WithField("component", "parser"),
	}
}

// ParseBatch synthesizes orders from the messages in their given order.
// A failure on one message is logged and skipped, never propagated. The
// returned orders are deduplicated within the batch: first occurrence per
// identity key wins, in message order. Dedup against previously persisted
// orders is the store's job, not the parser's.
func (p *Parser) ParseBatch(msgs []*domain.RawMessage, now time.Time) ([]*domain.Order, []Result) {
	results := make([]Result, 0, len(msgs))
	orders := make([]*domain.Order, 0, len(msgs))
	seen := make(map[string]bool, len(msgs))

	for _, msg := range msgs {
		if msg == nil {
			results = append(results, Result{SkipReason: SkipNilMessage})
			continue
		}

		order, failed := p.synthesizeSafe(msg, now)
		if failed {
			results = append(results, Result{MessageID: msg.ID, SkipReason: SkipParseFailed})
			continue
		}
		if order == nil {
			results = append(results, Result{MessageID: msg.ID, SkipReason: SkipNotRelevant})
			continue
		}

		// In-batch dedup key: order number when present, else message id.
		key := order.PlatformOrderID
		if key == "" {
			key = order.SourceMessageID
		}
		if seen[key] {
			results = append(results, Result{MessageID: msg.ID, SkipReason: SkipDuplicate})
			continue
		}
		seen[key] = true

		orders = append(orders, order)
		results = append(results, Result{MessageID: msg.ID, Order: order})
	}

	return orders, results
}

// synthesizeSafe recovers a panic out of synthesis so one malformed
// message cannot abort the batch.
func (p *Parser) synthesizeSafe(msg *domain.RawMessage, now time.Time) (order *domain.Order, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("message_id", msg.ID).Error("order synthesis panicked: %v", r)
			order, failed = nil, true
		}
	}()
	return Synthesize(p.platformKeyword, msg, now), false
}
