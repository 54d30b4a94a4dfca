package parse

import (
	"testing"

	"tracker_server/core/domain"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		subject string
		want    bool
	}{
		{"keyword in sender", "TikTok Shop <noreply@tiktokshop.com>", "Your order", true},
		{"keyword in subject", "store@example.com", "Your TikTok order shipped", true},
		{"case insensitive", "NOREPLY@TIKTOK.COM", "", true},
		{"no keyword anywhere", "amazon@amazon.com", "Your order has shipped", false},
		{"empty message", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Relevant("tiktok", tt.from, tt.subject)
			if got != tt.want {
				t.Errorf("Relevant(%q, %q) = %v, want %v", tt.from, tt.subject, got, tt.want)
			}
		})
	}
}

func TestStatusFromSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    domain.OrderStatus
	}{
		{"delivered", "Your order has been delivered!", domain.OrderStatusArrived},
		{"received", "Package received", domain.OrderStatusArrived},
		{"out for delivery", "Your package is out for delivery", domain.OrderStatusOutForDelivery},
		{"shipped", "Your order has shipped!", domain.OrderStatusShipped},
		{"on the way", "Your package is on the way", domain.OrderStatusShipped},
		{"no keyword defaults to ordered", "Your order is confirmed!", domain.OrderStatusOrdered},
		{"delivered beats shipped", "Shipped package was delivered", domain.OrderStatusArrived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusFromSubject(tt.subject)
			if got != tt.want {
				t.Errorf("StatusFromSubject(%q) = %v, want %v", tt.subject, got, tt.want)
			}
		})
	}
}
