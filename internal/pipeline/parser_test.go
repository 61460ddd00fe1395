package pipeline

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantCount  int
		wantAmount []float64
		wantErr    bool
	}{
		{
			name:       "bare array",
			raw:        `[{"amount":100,"isWin":true},{"amount":50,"isWin":false}]`,
			wantCount:  2,
			wantAmount: []float64{100, 50},
		},
		{
			name:       "fenced object wrapping records",
			raw:        "```json\n{\"records\":[{\"date\":\"2024-02-06\",\"amount\":800,\"isWin\":true,\"note\":\"\",\"circleName\":null}]}\n```",
			wantCount:  1,
			wantAmount: []float64{800},
		},
		{
			name:       "commentary around array",
			raw:        "好的，结果如下：\n[{\"amount\":300}]\n希望有帮助",
			wantCount:  1,
			wantAmount: []float64{300},
		},
		{
			name:       "single record object",
			raw:        `{"amount":200,"isWin":false,"tags":[]}`,
			wantCount:  1,
			wantAmount: []float64{200},
		},
		{
			name:      "isWin-only object",
			raw:       `{"isWin":true}`,
			wantCount: 1,
		},
		{
			name:      "object without records is one candidate",
			raw:       `{"foo":1,"bar":"baz"}`,
			wantCount: 1,
		},
		{
			name:       "wrapper with several keys yields its array",
			raw:        `{"records":[{"date":"2024-02-06","amount":800,"isWin":true}],"count":1}`,
			wantCount:  1,
			wantAmount: []float64{800},
		},
		{
			name:       "fenced wrapper with status key",
			raw:        "```json\n{\"status\":\"ok\",\"records\":[{\"amount\":300,\"isWin\":false},{\"amount\":120,\"isWin\":true}]}\n```",
			wantCount:  2,
			wantAmount: []float64{300, 120},
		},
		{
			name:      "empty array",
			raw:       "```\n[]\n```",
			wantCount: 0,
		},
		{
			name:       "broken array falls back to object",
			raw:        `see [note {"amount": 5}`,
			wantCount:  1,
			wantAmount: []float64{5},
		},
		{
			name:    "no json at all",
			raw:     "抱歉，我无法理解",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			raw:     `[{"amount": 1,]`,
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("err = %v, want ErrMalformedResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("got %d candidates, want %d", len(got), tt.wantCount)
			}
			for i, want := range tt.wantAmount {
				if amt := got[i].Field("amount").Float(); amt != want {
					t.Errorf("candidate %d amount = %v, want %v", i, amt, want)
				}
			}
		})
	}
}

func TestNormalizeStructuralRepair(t *testing.T) {
	raw := "```json\n{\"records\":[{\"date\":\"2024-02-06\",\"amount\":800,\"isWin\":true,\"note\":\"\",\"circleName\":null}]}\n```"

	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Field("amount").Float() != 800 {
		t.Errorf("amount = %v", got[0].Field("amount").Raw)
	}
	if !got[0].Field("isWin").Bool() {
		t.Errorf("isWin = %v", got[0].Field("isWin").Raw)
	}
}

func TestCandidateFieldOnScalar(t *testing.T) {
	c := NewCandidate(`42`)
	if c.Field("amount").Exists() {
		t.Error("scalar candidate should have no fields")
	}
	if c.Raw() != "42" {
		t.Errorf("Raw() = %q", c.Raw())
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n[1]\n```", "[1]"},
		{"```\n{}\n```", "{}"},
		{"  [2]  ", "[2]"},
		{"结果：```json [3] ```", "结果： [3]"},
	}
	for _, tt := range tests {
		if got := cleanModelJSON(tt.in); got != tt.want {
			t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
