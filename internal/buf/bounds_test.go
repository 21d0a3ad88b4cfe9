package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestCheckRange(t *testing.T) {
	tests := []struct {
		name    string
		len     int
		off     int
		n       int
		wantEnd int
		wantErr bool
	}{
		{"whole region", 65536, 0, 65536, 65536, false},
		{"tail word", 65536, 65528, 8, 65536, false},
		{"empty at end", 16, 16, 0, 16, false},
		{"one past end", 16, 9, 8, 0, true},
		{"negative offset", 16, -1, 1, 0, true},
		{"negative length", 16, 0, -1, 0, true},
		{"overflow", 16, math.MaxInt, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, err := CheckRange(tt.len, tt.off, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CheckRange(%d,%d,%d) expected error", tt.len, tt.off, tt.n)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckRange(%d,%d,%d) unexpected error: %v", tt.len, tt.off, tt.n, err)
			}
			if end != tt.wantEnd {
				t.Fatalf("CheckRange end=%d want %d", end, tt.wantEnd)
			}
		})
	}
}
