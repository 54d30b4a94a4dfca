package parse

import (
	"time"

	"tracker_server/core/domain"
)

// Platform order category. Extraction assigns a single fixed tag today.
const DefaultCategory = "Fashion"

// ManualKeyPrefix and MessageKeyPrefix keep synthesized identity keys out
// of the platform's all-numeric order-number space.
const (
	ManualKeyPrefix  = "M-"
	MessageKeyPrefix = "MSG-"
)

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02",
}

// Synthesize turns one raw message into an order record, or nil when the
// message fails relevance classification. Extractor misses degrade to
// empty fields, never to an error.
func Synthesize(platformKeyword string, msg *domain.RawMessage, now time.Time) *domain.Order {
	if !Relevant(platformKeyword, msg.From, msg.Subject) {
		return nil
	}

	allText := Normalize(msg.Snippet) + " " + Normalize(msg.Body)

	orderID := ExtractOrderID(allText)
	status := StatusFromSubject(msg.Subject)
	tracking := ExtractTracking(allText)

	order := &domain.Order{
		SourceMessageID: msg.ID,
		PlatformOrderID: orderID,
		OrderKey:        orderKeyFor(orderID, msg.ID),
		ItemLabel:       itemLabelFor(orderID, status),
		ShopName:        ExtractShopName(allText),
		Variant:         ExtractVariant(allText),
		Quantity:        ExtractQuantity(allText),
		Amount:          ExtractTotalPrice(allText),
		Category:        DefaultCategory,
		Tracking:        tracking,
		Carrier:         carrierFor(tracking),
		Status:          status,
		OrderedAt:       parseDate(msg.Date, now),
		Origin:          domain.OriginEmail,
		ExtractedAt:     now,
	}
	return order
}

// orderKeyFor returns the durable identity key: the platform order number
// when one was extracted, otherwise a message-derived key that stays
// stable across re-syncs of the same email.
func orderKeyFor(orderID, messageID string) string {
	if orderID != "" {
		return orderID
	}
	return MessageKeyPrefix + messageID
}

func itemLabelFor(orderID string, status domain.OrderStatus) string {
	if orderID != "" {
		return "Order #" + orderID[len(orderID)-8:]
	}
	switch status {
	case domain.OrderStatusArrived:
		return "Delivered Order"
	case domain.OrderStatusShipped:
		return "Shipped Order"
	default:
		return "New Order"
	}
}

func carrierFor(tracking string) string {
	if tracking != "" && tracking[:2] == "JT" {
		return "J&T Express"
	}
	return "Standard"
}

// parseDate reads the provider's date header, falling back to the current
// date truncated to day precision.
func parseDate(dateStr string, now time.Time) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.Truncate(24 * time.Hour)
		}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
