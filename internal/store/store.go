// Package store provides persistent storage for Pulsebot's tasks, projects,
// and users.
package store

import "time"

// Plan identifies a user's billing plan.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
	PlanTeam Plan = "team"
)

// Priority orders tasks in the due-today listing.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task statuses. Anything other than done counts as pending.
const (
	StatusPending = "pending"
	StatusDone    = "done"
)

// FreePlanTaskLimit is the total number of tasks a free-plan user may hold.
const FreePlanTaskLimit = 50

// User is an account that owns tasks and projects. TelegramChatID is empty
// until the account is linked to a chat.
type User struct {
	ID             string
	Plan           Plan
	TelegramChatID string
	CreatedAt      time.Time
}

// Project groups tasks under a user-chosen name.
type Project struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}

// Task is the full task record.
type Task struct {
	ID          string
	UserID      string
	ProjectID   string // empty for standalone tasks
	Title       string
	Status      string
	Priority    Priority
	DueDate     *time.Time
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// TaskItem is the listing projection handed to the executor: just enough to
// render one line. ProjectName is empty for standalone tasks. DueDate is set
// only by queries that order or filter on it.
type TaskItem struct {
	ID          string
	Title       string
	ProjectName string
	DueDate     *time.Time
	Priority    Priority
}

// Bookmark is a saved link. It shares the underlying table with tasks but is
// a distinct projection: the executor never inspects a URL sentinel to tell
// the two apart.
type Bookmark struct {
	ID          string
	Title       string
	URL         string
	ProjectName string
}

// TaskStore is the narrow persistence interface the executor depends on.
type TaskStore interface {
	// FindPendingTasks returns up to limit non-done tasks owned by the user,
	// most recently created first. Bookmarks are excluded.
	FindPendingTasks(userID string, limit int) ([]TaskItem, error)

	// FindDueToday returns up to limit non-done tasks due within the current
	// server-local calendar day, ordered by priority descending.
	FindDueToday(userID string, limit int) ([]TaskItem, error)

	// FindOverdue returns up to limit non-done tasks due strictly before the
	// start of today, ordered by due date ascending. DueDate is populated.
	FindOverdue(userID string, limit int) ([]TaskItem, error)

	// FindBookmarks returns up to limit bookmarks, most recent first.
	FindBookmarks(userID string, limit int) ([]Bookmark, error)

	// FindTaskOwnedBy returns the task only if it is owned by the user.
	// Returns (nil, nil) when absent or owned by someone else.
	FindTaskOwnedBy(taskID, userID string) (*Task, error)

	// MarkTaskDone marks a task complete.
	MarkTaskDone(taskID string) error

	// CountTasks returns the user's total task count. Bookmarks do not count.
	CountTasks(userID string) (int, error)

	// CreateStandaloneTask creates a task with no project link.
	CreateStandaloneTask(userID, title string) (*Task, error)

	// FindProjectByName resolves a project by case-insensitive exact name
	// match scoped to the user. Returns (nil, nil) when absent.
	FindProjectByName(userID, name string) (*Project, error)

	// CreateTaskInProject creates a task linked to a project.
	CreateTaskInProject(userID, projectID, title string) (*Task, error)

	// GetPlan returns the user's billing plan.
	GetPlan(userID string) (Plan, error)
}
