package coaching

import (
	"fmt"

	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
)

const (
	StopBanner    = "🛑 COMPLIANCE ALERT:"
	CautionBanner = "⚠️ CAUTION:"
)

const preambleTemplate = `

---

## COACHING MODE IS ENABLED

The compliance check flagged this query. Begin your response with "%s" and explain the concern before anything else.

**Coaching protocol:**
1. Name the policy at risk in one sentence.
2. Provide compliant alternatives whenever possible.
3. When in doubt, recommend consulting the compliance team.

**Coaching tone:**
- Be supportive, not punitive ("Great question asking about this upfront!")
- Frame compliance as a partnership ("I'm here to help you stay compliant")
- Celebrate compliant choices ("You're handling this exactly right")`

// Banner returns the response prefix for a level, or "" for Info
func Banner(level compliance.Severity) string {
	switch level {
	case compliance.SeverityStop:
		return StopBanner
	case compliance.SeverityWarning:
		return CautionBanner
	default:
		return ""
	}
}

// Preamble returns the system prompt suffix for a level. It depends only on
// the level; Info yields "".
func Preamble(level compliance.Severity) string {
	banner := Banner(level)
	if banner == "" {
		return ""
	}
	return fmt.Sprintf(preambleTemplate, banner)
}
