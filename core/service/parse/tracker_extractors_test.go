package parse

import "testing"

func TestExtractOrderID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"19 digits with boundaries", "Order ID: 5761234567890123456 thank you", "5761234567890123456"},
		{"18 digits", "id 123456789012345678.", "123456789012345678"},
		{"20 digits", "12345678901234567890", "12345678901234567890"},
		{"17 contiguous digits too short", "ref 12345678901234567 end", ""},
		{"21 contiguous digits too long", "ref 123456789012345678901 end", ""},
		{"21 digit blob with valid run elsewhere", "123456789012345678901 and 5761234567890123456", "5761234567890123456"},
		{"no digits", "no order number here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractOrderID(tt.text)
			if got != tt.want {
				t.Errorf("ExtractOrderID(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTracking(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"jt tracking", "your parcel JT1234567890123 is moving", "JT1234567890123"},
		{"jt lowercased input", "jt1234567890123456", "JT1234567890123456"},
		{"spx tracking", "SPX123456789012 has been picked up", "SPX123456789012"},
		{"sp tracking", "sp123456789012345", "SP123456789012345"},
		{"jt wins over spx", "SPX123456789012 JT1234567890123", "JT1234567890123"},
		{"too few digits", "JT123456789012", ""},
		{"none", "no tracking yet", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTracking(tt.text)
			if got != tt.want {
				t.Errorf("ExtractTracking(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractShopName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"official store", "Sold by: Glamour Beauty Official Store in your order", "Glamour Beauty"},
		{"online shop", "Seller: Sunshine Online Shop, enjoy", "Sunshine"},
		{"rejects tiktok", "TikTok Official Store", ""},
		{"rejects delivery word", "Delivery Official Store", ""},
		{"normalizes casing", "GLAMOUR beauty Official Store", "Glamour Beauty"},
		{"no template", "Some Random Seller", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractShopName(tt.text)
			if got != tt.want {
				t.Errorf("ExtractShopName(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractVariant(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"color with size", "Variant: Black, EU:42 in stock", "Black, EU:42"},
		{"bare color", "red", "red"},
		{"color with code", "Navy XL-2 selected", "Navy XL-2"},
		{"rejects noise words", "pink msg 123", ""},
		{"no color", "size 42 only", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVariant(tt.text)
			if got != tt.want {
				t.Errorf("ExtractVariant(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTotalPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"labeled total payment", "Total Payment ₱1,234.56", 1234.56},
		{"labeled with colon", "Order Total: ₱99.00", 99},
		{"total with item count", "Total (2 items) ₱500.00", 500},
		{"label priority over position", "Subtotal ₱10.00 Total Payment ₱25.50 Shipping ₱5.00", 25.50},
		{"fallback last currency amount", "₱10.00 some text ₱25.50", 25.50},
		{"labeled out of range falls through", "Total Payment ₱150000", 150000},
		{"no price", "thanks for your order", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTotalPrice(tt.text)
			if got != tt.want {
				t.Errorf("ExtractTotalPrice(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"times token", "Black Tee x3", 3},
		{"multiplication sign", "item ×2", 2},
		{"items token", "4 items total", 4},
		{"out of range defaults", "x500 units", 1},
		{"none defaults to one", "your order", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractQuantity(tt.text)
			if got != tt.want {
				t.Errorf("ExtractQuantity(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}
