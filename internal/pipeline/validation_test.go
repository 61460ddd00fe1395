package pipeline

import "testing"

func TestHasZeroCue(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"今天打平，没输没赢", true},
		{"不输不赢", true},
		{"保本了", true},
		{"赢了0元", true},
		{"0", true},
		{"零收入", true},
		{"It was a draw", true},
		{"we broke even", false},
		{"break even tonight", true},
		{"随便说点什么", false},
		{"赢了100", false},
		{"2024-02-06 输了 300", false},
		{"赢了0.5", false},
		{"drawing a tile", false},
		{"今天输赢 0", true},
		{"结果: 0", true},
		{"0块", true},
		{"凌晨0点散场", false},
		{"0点开打，手气一般", false},
		{"第10局", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := HasZeroCue(tt.text); got != tt.want {
				t.Errorf("HasZeroCue(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
