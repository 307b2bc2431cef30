package reasoning

import (
	"fmt"
	"strings"

	"github.com/akmatori/incident-analyst/internal/utils"
)

const (
	promptLogsPreview = 500
	// Current logs and metrics are cut from the front; the newest lines matter most
	promptMaxLogs = 16000
)

const systemPrompt = `You are an autonomous incident analyst. Analyze the system incident you are given and provide actionable insights.

Provide:
1. Suspected root causes: the most likely root causes, most likely first (be specific)
2. Suggested fix: ONE specific, actionable fix to try next
3. Confidence: low, medium or high
4. Explanation: a brief explanation of your reasoning

Return ONLY valid JSON with this exact structure:
{
  "suspected_root_causes": ["cause1", "cause2"],
  "suggested_fix": "specific action to take",
  "confidence": "medium",
  "explanation": "your reasoning here"
}`

// BuildPrompt returns the system and user prompts for a request
func BuildPrompt(req Request) (string, string) {
	var b strings.Builder

	b.WriteString("## Current Incident\n### Logs:\n")
	b.WriteString(utils.TruncateTail(req.Logs, promptMaxLogs))
	b.WriteString("\n\n### Metrics:\n")
	if strings.TrimSpace(req.Metrics) == "" {
		b.WriteString("No additional metrics provided")
	} else {
		b.WriteString(utils.TruncateTail(req.Metrics, promptMaxLogs))
	}
	b.WriteString("\n")

	if len(req.Similar) > 0 {
		b.WriteString("\n## Similar Past Incidents\n")
		for i, s := range req.Similar {
			causes := "Unknown"
			if len(s.RootCauses) > 0 {
				causes = strings.Join(s.RootCauses, ", ")
			}
			resolution := s.Resolution
			if resolution == "" {
				resolution = "N/A"
			}
			fmt.Fprintf(&b, "\n### Past Incident %d (#%d):\n- Logs: %s\n- Root Causes Found: %s\n- Resolution: %s\n",
				i+1, s.ID, truncate(s.LogsPreview, promptLogsPreview), causes, resolution)
		}
	}

	if len(req.AttemptedFixes) > 0 {
		b.WriteString("\n## Already Attempted Fixes (did not fully resolve):\n")
		for _, f := range req.AttemptedFixes {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	b.WriteString("\nReturn your analysis as JSON.")
	return systemPrompt, b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
