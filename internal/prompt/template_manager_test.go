package prompt

import (
	"strings"
	"testing"
)

func TestResolveInstruction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"プリセット名は指示文に展開されるのだ", PresetRemoveBackground, "Remove the background", false},
		{"自由記述はそのまま", "  make it sepia  ", "make it sepia", false},
		{"空はエラー", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveInstruction(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("エラーの有無が不正です: %v", err)
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("got %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestGetPromptByPreset(t *testing.T) {
	for _, name := range PresetNames() {
		if p, err := GetPromptByPreset(name); err != nil || p == "" {
			t.Errorf("プリセット %s が空です: %v", name, err)
		}
	}
	if _, err := GetPromptByPreset("watercolor"); err == nil {
		t.Error("未知のプリセットはエラーのはずなのだ")
	}
	if len(PresetNames()) != 4 {
		t.Errorf("プリセット数が不正です: %v", PresetNames())
	}
}
