package prompt

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	PresetRemoveBackground = "remove-background"
	PresetRetroFilter      = "retro-filter"
	PresetOilPainting      = "oil-painting"
	PresetRedTie           = "red-tie"
)

//go:embed remove_background.md
var RemoveBackgroundPrompt string

//go:embed retro_filter.md
var RetroFilterPrompt string

//go:embed oil_painting.md
var OilPaintingPrompt string

//go:embed red_tie.md
var RedTiePrompt string

// presetTemplates はプリセット名と編集指示文を紐づけるマップなのだ。
var presetTemplates = map[string]string{
	PresetRemoveBackground: RemoveBackgroundPrompt,
	PresetRetroFilter:      RetroFilterPrompt,
	PresetOilPainting:      OilPaintingPrompt,
	PresetRedTie:           RedTiePrompt,
}

// PresetNames は利用できるプリセット名をソートして返すのだ。
func PresetNames() []string {
	names := slices.Collect(maps.Keys(presetTemplates))
	slices.Sort(names)
	return names
}

// GetPromptByPreset は、指定されたプリセットに対応する編集指示文を返すのだ。
func GetPromptByPreset(name string) (string, error) {
	content, ok := presetTemplates[name]
	if !ok {
		return "", fmt.Errorf("サポートされていないプリセット: '%s'。サポートされているプリセットは [%s] です",
			name, strings.Join(PresetNames(), ", "))
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("プリセット '%s' に対応する指示文が空なのだ。embed設定を確認してほしいのだ", name)
	}

	return content, nil
}

// ResolveInstruction は、プリセット名ならその指示文に展開し、それ以外は自由記述としてそのまま返すのだ。
func ResolveInstruction(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("編集指示が空なのだ")
	}
	if _, ok := presetTemplates[input]; ok {
		return GetPromptByPreset(input)
	}
	return input, nil
}
