package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.uber.org/zap"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		sender  string
		want    bool
	}{
		{
			name:    "empty list admits everyone",
			entries: nil,
			sender:  "+15551234567",
			want:    true,
		},
		{
			name:    "exact phone match",
			entries: []string{"+15551234567"},
			sender:  "+15551234567",
			want:    true,
		},
		{
			name:    "phone formatting ignored",
			entries: []string{"+1 (555) 123-4567"},
			sender:  "+15551234567",
			want:    true,
		},
		{
			name:    "unknown phone rejected",
			entries: []string{"+15551234567"},
			sender:  "+15559999999",
			want:    false,
		},
		{
			name:    "email domain match",
			entries: []string{"example.com"},
			sender:  "alice@example.com",
			want:    true,
		},
		{
			name:    "email domain case-insensitive",
			entries: []string{"Example.COM"},
			sender:  "Alice@EXAMPLE.com",
			want:    true,
		},
		{
			name:    "full email match",
			entries: []string{"bob@example.org"},
			sender:  "bob@example.org",
			want:    true,
		},
		{
			name:    "other address on same list rejected",
			entries: []string{"bob@example.org"},
			sender:  "eve@example.org",
			want:    false,
		},
		{
			name:    "blank entries ignored",
			entries: []string{"", "  ", "+15551234567"},
			sender:  "+15551234567",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(tt.entries, zap.NewNop())
			assert.Equal(t, tt.want, c.IsAllowed(tt.sender))
		})
	}
}
