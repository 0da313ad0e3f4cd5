package report

import "github.com/teamflex/teamcredits/internal/analytics"

// modelNames maps internal model identifiers to display names. Unknown
// identifiers pass through raw so new models surface immediately.
var modelNames = map[string]string{
	"MODEL_PRIVATE_1":  "Gemini 2.5 Pro (early)",
	"MODEL_PRIVATE_2":  "Claude Sonnet 4.5",
	"MODEL_PRIVATE_3":  "Claude Sonnet 4.5 Thinking",
	"MODEL_PRIVATE_4":  "Grok 4 Code",
	"MODEL_PRIVATE_5":  "GPT-5 Codex",
	"MODEL_PRIVATE_6":  "GPT-5 (low reasoning)",
	"MODEL_PRIVATE_7":  "GPT-5 (medium reasoning)",
	"MODEL_PRIVATE_8":  "GPT-5 (high reasoning)",
	"MODEL_PRIVATE_9":  "Gemini 2.5 Pro (soft-waffle)",
	"MODEL_PRIVATE_10": "GLM SWE 1.5 Alpha",
	"MODEL_PRIVATE_11": "Claude Haiku 4.5",

	"MODEL_CLAUDE_3_7_SONNET_20250219":          "Claude 3.7 Sonnet",
	"MODEL_CLAUDE_3_7_SONNET_20250219_THINKING": "Claude 3.7 Sonnet Thinking",
	"MODEL_CLAUDE_4_SONNET":                     "Claude 4 Sonnet",
	"MODEL_GOOGLE_GEMINI_2_5_PRO":               "Gemini 2.5 Pro",
	"MODEL_CHAT_GPT_4_1_2025_04_14":             "GPT-4.1 (2025-04-14)",
	"MODEL_CHAT_GPT_4O_2024_08_06":              "GPT-4o (2024-08-06)",

	analytics.NilSentinel: "Unknown Model",
}

// FriendlyModelName resolves an internal model identifier to its display
// name.
func FriendlyModelName(model string) string {
	if name, ok := modelNames[model]; ok {
		return name
	}
	return model
}
