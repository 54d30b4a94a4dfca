package parse

import (
	"strings"

	"tracker_server/core/domain"
)

// Relevant reports whether the message looks like a platform order email.
// The check runs over sender and subject only; body content is never
// consulted. Unrelated mail that happens to mention the platform name is
// an accepted false positive.
func Relevant(platformKeyword, from, subject string) bool {
	lower := strings.ToLower(from + " " + subject)
	return strings.Contains(lower, strings.ToLower(platformKeyword))
}

// StatusFromSubject infers the lifecycle status from the subject line.
// First match wins, in priority order.
func StatusFromSubject(subject string) domain.OrderStatus {
	s := strings.ToLower(subject)
	if strings.Contains(s, "delivered") || strings.Contains(s, "received") {
		return domain.OrderStatusArrived
	}
	if strings.Contains(s, "out for delivery") {
		return domain.OrderStatusOutForDelivery
	}
	if strings.Contains(s, "shipped") || strings.Contains(s, "on the way") {
		return domain.OrderStatusShipped
	}
	return domain.OrderStatusOrdered
}
