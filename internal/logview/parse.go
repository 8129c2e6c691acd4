// Package logview fetches and formats the daemon's syslog lines.
package logview

import (
	"strings"
)

// Entry is one parsed syslog line.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// EmptyText is shown when no entries are available.
const EmptyText = "No logs available"

// Severity labels the panel substitutes for syslog facility markers.
const (
	SeverityStdErr = "StdErr"
	SeverityInfo   = "Info"
)

const minTokens = 6

// severityMap gives the display label and message start token for the
// markers that get special treatment. Others keep their marker and start
// at token 9.
var severityMap = map[string]struct {
	label string
	start int
}{
	"daemon.err":    {SeverityStdErr, 9},
	"daemon.notice": {SeverityInfo, 10},
}

const defaultStart = 9

// String formats the entry as a display line.
func (e Entry) String() string {
	return e.Timestamp + " [ " + e.Severity + " ] - " + e.Message
}

// ParseLine parses a logread line. ok is false for lines with fewer than
// six tokens.
func ParseLine(line string) (Entry, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < minTokens {
		return Entry{}, false
	}
	severity, start := tokens[5], defaultStart
	if m, found := severityMap[severity]; found {
		severity, start = m.label, m.start
	}
	var message string
	if start < len(tokens) {
		message = strings.Join(tokens[start:], " ")
	}
	return Entry{
		Timestamp: tokens[1] + " " + tokens[2] + " - " + tokens[3],
		Severity:  severity,
		Message:   message,
	}, true
}

// Parse parses logread output, dropping malformed lines. Input order is
// preserved.
func Parse(output string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(output, "\n") {
		if e, ok := ParseLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Lines formats entries for display, newest first when reverse is set.
// The input slice is not modified.
func Lines(entries []Entry, reverse bool) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		if reverse {
			out[len(entries)-1-i] = e.String()
		} else {
			out[i] = e.String()
		}
	}
	return out
}

// Text joins the display lines, or returns EmptyText for no entries.
func Text(entries []Entry, reverse bool) string {
	if len(entries) == 0 {
		return EmptyText
	}
	return strings.Join(Lines(entries, reverse), "\n")
}
