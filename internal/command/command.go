// Package command parses free-text chat messages into structured bot commands.
//
// The vocabulary is fixed and small, so parsing is an ordered rule list:
// exact keywords first, then the two pattern commands, then the Unknown
// fallback. Parsing is total — every input maps to exactly one command.
package command

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the command variants.
type Kind int

const (
	KindUnknown Kind = iota
	KindListPending
	KindListDueToday
	KindListOverdue
	KindListBookmarks
	KindCompleteByIndex
	KindAddTask
	KindHelp
)

// Command is the parsed form of an inbound chat message.
// Payload fields are only meaningful for the Kind that declares them.
type Command struct {
	Kind Kind

	// Index is the 1-based positional reference for KindCompleteByIndex.
	// Range validation happens at execution time, not here.
	Index int

	// ProjectName and Title carry the KindAddTask payload with original casing.
	ProjectName string
	Title       string

	// RawText is the trimmed original input for KindUnknown.
	RawText string
}

var (
	doneRe = regexp.MustCompile(`(?i)^/?done\s+(\d+)$`)
	addRe  = regexp.MustCompile(`(?i)^/?add\s+(.+?):\s+(.+)$`)
)

// keywords maps exact keyword commands (leading slash optional) to their kind.
var keywords = map[string]Kind{
	"tasks":     KindListPending,
	"today":     KindListDueToday,
	"overdue":   KindListOverdue,
	"bookmarks": KindListBookmarks,
	"help":      KindHelp,
}

// Parse converts a chat message into a Command. It never fails: input that
// matches no rule becomes KindUnknown. Keyword matching is case-insensitive;
// pattern payloads preserve the original casing.
func Parse(text string) Command {
	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)

	if kind, ok := keywords[strings.TrimPrefix(lowered, "/")]; ok {
		return Command{Kind: kind}
	}

	if m := doneRe.FindStringSubmatch(trimmed); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return Command{Kind: KindCompleteByIndex, Index: n}
		}
	}

	if m := addRe.FindStringSubmatch(trimmed); m != nil {
		return Command{
			Kind:        KindAddTask,
			ProjectName: strings.TrimSpace(m[1]),
			Title:       strings.TrimSpace(m[2]),
		}
	}

	return Command{Kind: KindUnknown, RawText: trimmed}
}

// String returns a human-readable name for the command kind.
func (k Kind) String() string {
	switch k {
	case KindListPending:
		return "list-pending"
	case KindListDueToday:
		return "list-due-today"
	case KindListOverdue:
		return "list-overdue"
	case KindListBookmarks:
		return "list-bookmarks"
	case KindCompleteByIndex:
		return "complete-by-index"
	case KindAddTask:
		return "add-task"
	case KindHelp:
		return "help"
	default:
		return "unknown"
	}
}
