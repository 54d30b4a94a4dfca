package parse

import (
	"testing"

	"tracker_server/core/domain"
)

func tiktokMessage(id, subject, body string) *domain.RawMessage {
	return &domain.RawMessage{
		ID:      id,
		From:    "TikTok Shop <noreply@tiktokshop.com>",
		Subject: subject,
		Body:    body,
	}
}

func TestParseBatch_DedupFirstWins(t *testing.T) {
	p := NewParser("tiktok")

	// Two messages deriving the same platform order number.
	msgs := []*domain.RawMessage{
		tiktokMessage("msg-a", "Your order is confirmed!", "Order 5761234567890123456 ₱100.00"),
		tiktokMessage("msg-b", "Your order has shipped!", "Order 5761234567890123456 ₱100.00"),
	}

	orders, results := p.ParseBatch(msgs, testNow)

	if len(orders) != 1 {
		t.Fatalf("len(orders) = %d, want 1", len(orders))
	}
	if orders[0].SourceMessageID != "msg-a" {
		t.Errorf("kept order from %q, want msg-a (first occurrence wins)", orders[0].SourceMessageID)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[1].SkipReason != SkipDuplicate {
		t.Errorf("results[1].SkipReason = %q, want %q", results[1].SkipReason, SkipDuplicate)
	}
}

func TestParseBatch_DistinctMessagesWithoutOrderID(t *testing.T) {
	p := NewParser("tiktok")

	// No platform order number: dedup falls back to the message id, so
	// distinct messages both survive.
	msgs := []*domain.RawMessage{
		tiktokMessage("msg-a", "Your order has shipped!", "₱10.00"),
		tiktokMessage("msg-b", "Your order has shipped!", "₱10.00"),
	}

	orders, _ := p.ParseBatch(msgs, testNow)
	if len(orders) != 2 {
		t.Fatalf("len(orders) = %d, want 2", len(orders))
	}
}

func TestParseBatch_SkipsIrrelevantAndNil(t *testing.T) {
	p := NewParser("tiktok")

	msgs := []*domain.RawMessage{
		nil,
		{ID: "msg-x", From: "news@other.com", Subject: "Sale today"},
		tiktokMessage("msg-y", "Your order has shipped!", "₱55.00"),
	}

	orders, results := p.ParseBatch(msgs, testNow)

	if len(orders) != 1 {
		t.Fatalf("len(orders) = %d, want 1", len(orders))
	}
	if orders[0].SourceMessageID != "msg-y" {
		t.Errorf("order from %q, want msg-y", orders[0].SourceMessageID)
	}
	if results[0].SkipReason != SkipNilMessage {
		t.Errorf("results[0].SkipReason = %q, want %q", results[0].SkipReason, SkipNilMessage)
	}
	if results[1].SkipReason != SkipNotRelevant {
		t.Errorf("results[1].SkipReason = %q, want %q", results[1].SkipReason, SkipNotRelevant)
	}
	if results[2].Order == nil {
		t.Error("results[2].Order = nil, want parsed order")
	}
}

func TestParseBatch_Empty(t *testing.T) {
	p := NewParser("tiktok")
	orders, results := p.ParseBatch(nil, testNow)
	if len(orders) != 0 || len(results) != 0 {
		t.Errorf("ParseBatch(nil) = %d orders, %d results, want 0, 0", len(orders), len(results))
	}
}
