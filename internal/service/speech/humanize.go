package speech

import (
	"strings"

	"github.com/sujith-hx/aroha/internal/analysis/emotion"
)

var contractions = [][2]string{
	{"I am ", "I'm "},
	{"you are ", "you're "},
	{"cannot ", "can't "},
	{"will not ", "won't "},
}

// Humanize rewrites text for less clipped speech: common contractions
// always, plus elongated pauses at sentence boundaries for heavy emotional
// contexts. Idempotent on text already free of the patterns it targets.
func Humanize(text string, label emotion.Label) string {
	for _, c := range contractions {
		text = strings.ReplaceAll(text, c[0], c[1])
	}

	switch label {
	case emotion.Crisis, emotion.Urgent:
		text = insertPauses(text, ". ", "... ")
		text = insertPauses(text, "? ", "?... ")
	case emotion.Sad, emotion.Anxious:
		text = insertPauses(text, ". ", "... ")
	}

	return text
}

// insertPauses replaces boundary with pause, skipping boundaries that are
// already elongated so repeated passes do not stack dots.
func insertPauses(text, boundary, pause string) string {
	var b strings.Builder
	for {
		idx := strings.Index(text, boundary)
		if idx == -1 {
			b.WriteString(text)
			return b.String()
		}

		segment := text[:idx]
		b.WriteString(segment)
		rest := text[idx+len(boundary):]

		if strings.HasSuffix(segment, "..") || strings.HasPrefix(rest, "..") {
			b.WriteString(boundary)
		} else {
			b.WriteString(pause)
		}
		text = rest
	}
}
