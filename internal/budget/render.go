package budget

import (
	"strings"

	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

// Render formats selected changes as unified-diff text ready to paste into
// a prompt. Compressed changes render their summary hunks as context lines.
func Render(changes []ranking.RankedChange) string {
	var b strings.Builder
	for i, rc := range changes {
		if i > 0 {
			b.WriteByte('\n')
		}
		c := rc.Change

		oldPath, newPath := "a/"+c.Path, "b/"+c.Path
		switch c.Kind {
		case model.KindAdded:
			oldPath = "/dev/null"
		case model.KindDeleted:
			newPath = "/dev/null"
		case model.KindRenamed:
			if c.OldPath != "" {
				oldPath = "a/" + c.OldPath
			}
		}
		b.WriteString("--- " + oldPath + "\n")
		b.WriteString("+++ " + newPath + "\n")

		for _, h := range c.Hunks {
			b.WriteString(h.Header)
			b.WriteByte('\n')
			for _, l := range h.Lines {
				b.WriteString(l.Kind.Prefix())
				b.WriteString(l.Content)
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}
