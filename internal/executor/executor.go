// Package executor turns parsed commands into task-store reads/writes and
// human-readable replies.
//
// All domain-level "can't do that" situations (cache miss, bad index,
// missing task, quota, unknown project) resolve to reply strings. Only
// store I/O failures return as errors, for the transport handler to deal
// with.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pulsepro/pulsebot/internal/command"
	"github.com/pulsepro/pulsebot/internal/logging"
	"github.com/pulsepro/pulsebot/internal/session"
	"github.com/pulsepro/pulsebot/internal/store"
)

// listLimit caps every listing command.
const listLimit = 10

// quickTaskLabel is the project label shown for standalone tasks.
const quickTaskLabel = "Quick task"

const (
	msgAllCaughtUp  = "✅ All caught up. No pending tasks."
	msgNothingToday = "📅 Nothing due today."
	msgNoOverdue    = "👍 No overdue tasks."
	msgNoBookmarks  = "🔖 No bookmarks saved."
	msgListFirst    = "Send tasks first, then reply done N."
	msgTaskNotFound = "Task not found. Send tasks for a fresh list."
	msgQuotaReached = "🚫 You've reached the free plan limit of 50 tasks. Upgrade to Pro to add more."
	msgUnknown      = "I didn't understand that. Send help to see what I can do."

	msgHelp = `🤖 Pulse Pro Bot

Commands
tasks — Your pending tasks
today — Tasks due today
overdue — Tasks past their due date
bookmarks — Your saved links
done N — Complete task N from the last list
add <project>: <title> — Add a task to a project
help — This message

Commands also work with a leading slash, e.g. /tasks.`
)

// Executor dispatches commands against the task store and result cache.
// It has no state of its own beyond the injected cache.
type Executor struct {
	store  store.TaskStore
	cache  session.Cache
	logger *slog.Logger

	// now is injectable for overdue-day math in tests.
	now func() time.Time
}

// New creates an executor over the given store and result cache.
func New(taskStore store.TaskStore, cache session.Cache) *Executor {
	return &Executor{
		store:  taskStore,
		cache:  cache,
		logger: logging.WithComponent("executor"),
		now:    time.Now,
	}
}

// Execute runs one command for a user in a conversation and returns the
// reply text. An error is returned only for store failures; everything else
// becomes a reply.
func (e *Executor) Execute(ctx context.Context, cmd command.Command, userID, conversationID string) (string, error) {
	switch cmd.Kind {
	case command.KindListPending:
		return e.listPending(ctx, userID, conversationID)
	case command.KindListDueToday:
		return e.listDueToday(ctx, userID, conversationID)
	case command.KindListOverdue:
		return e.listOverdue(ctx, userID, conversationID)
	case command.KindListBookmarks:
		return e.listBookmarks(userID)
	case command.KindCompleteByIndex:
		return e.completeByIndex(ctx, cmd.Index, userID, conversationID)
	case command.KindAddTask:
		return e.addTask(cmd.ProjectName, cmd.Title, userID)
	case command.KindHelp:
		return msgHelp, nil
	default:
		return msgUnknown, nil
	}
}

// listPending renders the user's pending tasks and makes them addressable.
func (e *Executor) listPending(ctx context.Context, userID, conversationID string) (string, error) {
	items, err := e.store.FindPendingTasks(userID, listLimit)
	if err != nil {
		return "", fmt.Errorf("failed to fetch pending tasks: %w", err)
	}
	if len(items) == 0 {
		return msgAllCaughtUp, nil
	}

	e.cacheItems(ctx, conversationID, items)

	var sb strings.Builder
	sb.WriteString("📋 Your tasks\n\n")
	sb.WriteString(FormatTaskLines(items))
	sb.WriteString("\nReply done N to complete a task.")
	return sb.String(), nil
}

// listDueToday renders tasks due within the current calendar day.
func (e *Executor) listDueToday(ctx context.Context, userID, conversationID string) (string, error) {
	items, err := e.store.FindDueToday(userID, listLimit)
	if err != nil {
		return "", fmt.Errorf("failed to fetch due-today tasks: %w", err)
	}
	if len(items) == 0 {
		return msgNothingToday, nil
	}

	e.cacheItems(ctx, conversationID, items)

	var sb strings.Builder
	sb.WriteString("📅 Due today\n\n")
	sb.WriteString(FormatTaskLines(items))
	sb.WriteString("\nReply done N to complete a task.")
	return sb.String(), nil
}

// listOverdue renders tasks past their due date with the days overdue.
func (e *Executor) listOverdue(ctx context.Context, userID, conversationID string) (string, error) {
	items, err := e.store.FindOverdue(userID, listLimit)
	if err != nil {
		return "", fmt.Errorf("failed to fetch overdue tasks: %w", err)
	}
	if len(items) == 0 {
		return msgNoOverdue, nil
	}

	e.cacheItems(ctx, conversationID, items)

	now := e.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var sb strings.Builder
	sb.WriteString("⏰ Overdue\n\n")
	for i, item := range items {
		days := 0
		if item.DueDate != nil {
			days = int(todayStart.Sub(*item.DueDate).Hours() / 24)
			if days < 0 {
				days = 0
			}
		}
		fmt.Fprintf(&sb, "%d. %s\n   %s • %dd overdue\n", i+1, item.Title, projectLabel(item.ProjectName), days)
	}
	sb.WriteString("\nReply done N to complete a task.")
	return sb.String(), nil
}

// listBookmarks renders saved links. Bookmarks are not completed by index,
// so this listing deliberately does not touch the result cache: a later
// "done N" acts on whichever task list was cached last.
func (e *Executor) listBookmarks(userID string) (string, error) {
	bookmarks, err := e.store.FindBookmarks(userID, listLimit)
	if err != nil {
		return "", fmt.Errorf("failed to fetch bookmarks: %w", err)
	}
	if len(bookmarks) == 0 {
		return msgNoBookmarks, nil
	}

	var sb strings.Builder
	sb.WriteString("🔖 Bookmarks\n\n")
	for i, b := range bookmarks {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, b.Title, b.URL)
		if b.ProjectName != "" {
			fmt.Fprintf(&sb, "   %s\n", b.ProjectName)
		}
	}
	return sb.String(), nil
}

// completeByIndex resolves a positional reference against the cached list
// and marks the task done. Ownership is re-validated here, not just at
// cache-population time: a cached id from another user's session must never
// be actionable.
func (e *Executor) completeByIndex(ctx context.Context, index int, userID, conversationID string) (string, error) {
	ids, ok, err := e.cache.Get(ctx, conversationID)
	if err != nil {
		// The cache is advisory; a backend failure degrades to a miss.
		e.logger.Warn("Result cache read failed", slog.Any("error", err))
		ok = false
	}
	if !ok {
		return msgListFirst, nil
	}

	if index < 1 || index > len(ids) {
		return fmt.Sprintf("Invalid number. Pick between 1 and %d.", len(ids)), nil
	}

	task, err := e.store.FindTaskOwnedBy(ids[index-1], userID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch task: %w", err)
	}
	if task == nil {
		// Deleted, stale, or another user's task: same reply either way.
		return msgTaskNotFound, nil
	}

	if task.Status == store.StatusDone {
		return fmt.Sprintf("✅ %q is already complete.", task.Title), nil
	}

	if err := e.store.MarkTaskDone(task.ID); err != nil {
		return "", fmt.Errorf("failed to complete task: %w", err)
	}
	return fmt.Sprintf("✅ Done: %s", task.Title), nil
}

// addTask creates a task, enforcing the free-plan quota first. An empty
// project name creates a standalone task.
func (e *Executor) addTask(projectName, title, userID string) (string, error) {
	plan, err := e.store.GetPlan(userID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch plan: %w", err)
	}
	if plan == store.PlanFree {
		count, err := e.store.CountTasks(userID)
		if err != nil {
			return "", fmt.Errorf("failed to count tasks: %w", err)
		}
		if count >= store.FreePlanTaskLimit {
			return msgQuotaReached, nil
		}
	}

	if projectName == "" {
		task, err := e.store.CreateStandaloneTask(userID, title)
		if err != nil {
			return "", fmt.Errorf("failed to create task: %w", err)
		}
		return fmt.Sprintf("➕ Added %q.", task.Title), nil
	}

	project, err := e.store.FindProjectByName(userID, projectName)
	if err != nil {
		return "", fmt.Errorf("failed to look up project: %w", err)
	}
	if project == nil {
		return fmt.Sprintf("Project %q not found. Check the name.", projectName), nil
	}

	task, err := e.store.CreateTaskInProject(userID, project.ID, title)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return fmt.Sprintf("➕ Added %q to %s.", task.Title, project.Name), nil
}

// cacheItems stores the listed ids in display order. Cache failures are
// logged and otherwise ignored; the listing reply is still valid.
func (e *Executor) cacheItems(ctx context.Context, conversationID string, items []store.TaskItem) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if err := e.cache.Put(ctx, conversationID, ids); err != nil {
		e.logger.Warn("Result cache write failed", slog.Any("error", err))
	}
}

// FormatTaskLines renders a 1-based numbered task list, one title line and
// one project line per task. The daily digest reuses it.
func FormatTaskLines(items []store.TaskItem) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, item.Title, projectLabel(item.ProjectName))
	}
	return sb.String()
}

// projectLabel substitutes the standalone-task sentinel for an empty name.
func projectLabel(name string) string {
	if name == "" {
		return quickTaskLabel
	}
	return name
}
