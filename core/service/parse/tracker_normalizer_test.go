package parse

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "strips html tags",
			input: "<p>Total Payment</p><br/>₱217.43",
			want:  "Total Payment ₱217.43",
		},
		{
			name:  "strips css declarations",
			input: "font-size: 14px; Order confirmed color: red;",
			want:  "Order confirmed",
		},
		{
			name:  "strips color literals",
			input: "rgba(0, 0, 0, 0.5) #ff00aa order",
			want:  "order",
		},
		{
			name:  "strips length literals and layout keywords",
			input: "20px 2em 50% nowrap solid block your package",
			want:  "your package",
		},
		{
			name:  "strips html entities",
			input: "Total&nbsp;Payment &#8369;100",
			want:  "Total Payment 100",
		},
		{
			name:  "collapses whitespace and trims",
			input: "  Order   \n\t shipped  ",
			want:  "Order shipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
