package completion

import (
	"strings"
	"testing"
	"time"
)

func TestBuildExtractionPrompt(t *testing.T) {
	now := time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		circles     []string
		wantContain []string
	}{
		{
			name:        "WithCircles",
			circles:     []string{"同事圈", "老同学"},
			wantContain: []string{"2025-02-10", "2025 年", "同事圈、老同学", "周五下午输了300"},
		},
		{
			name:        "NoCircles",
			circles:     nil,
			wantContain: []string{"（暂无）", "circleName"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := BuildExtractionPrompt("周五下午输了300", tt.circles, now)
			for _, want := range tt.wantContain {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
		})
	}
}

func TestBuildExtractionPromptRules(t *testing.T) {
	prompt := BuildExtractionPrompt("随便", nil, time.Now())
	for _, rule := range []string{"汇总", "金额为 0", "空数组 []", "模糊匹配"} {
		if !strings.Contains(prompt, rule) {
			t.Errorf("prompt missing rule mentioning %q", rule)
		}
	}
}
