package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pulsepro/pulsebot/internal/command"
	"github.com/pulsepro/pulsebot/internal/session"
	"github.com/pulsepro/pulsebot/internal/store"
)

// fakeStore is an in-memory TaskStore for executor tests.
type fakeStore struct {
	tasks     map[string]*store.Task // by id
	projects  []*store.Project
	bookmarks []store.Bookmark
	plans     map[string]store.Plan
	order     []string // task ids in insertion order
	failWith  error    // when set, every call fails
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: make(map[string]*store.Task),
		plans: make(map[string]store.Plan),
	}
}

func (f *fakeStore) addTask(userID, title, projectID string) *store.Task {
	f.nextID++
	task := &store.Task{
		ID:        fmt.Sprintf("task-%d", f.nextID),
		UserID:    userID,
		ProjectID: projectID,
		Title:     title,
		Status:    store.StatusPending,
		Priority:  store.PriorityMedium,
	}
	f.tasks[task.ID] = task
	f.order = append(f.order, task.ID)
	return task
}

func (f *fakeStore) addProject(userID, name string) *store.Project {
	f.nextID++
	p := &store.Project{ID: fmt.Sprintf("proj-%d", f.nextID), UserID: userID, Name: name}
	f.projects = append(f.projects, p)
	return p
}

func (f *fakeStore) projectName(id string) string {
	for _, p := range f.projects {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

func (f *fakeStore) FindPendingTasks(userID string, limit int) ([]store.TaskItem, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var items []store.TaskItem
	// most recently created first
	for i := len(f.order) - 1; i >= 0 && len(items) < limit; i-- {
		task := f.tasks[f.order[i]]
		if task.UserID != userID || task.Status == store.StatusDone {
			continue
		}
		items = append(items, store.TaskItem{
			ID:          task.ID,
			Title:       task.Title,
			ProjectName: f.projectName(task.ProjectID),
			Priority:    task.Priority,
		})
	}
	return items, nil
}

func (f *fakeStore) FindDueToday(userID string, limit int) ([]store.TaskItem, error) {
	return f.FindPendingTasks(userID, limit)
}

func (f *fakeStore) FindOverdue(userID string, limit int) ([]store.TaskItem, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	items, _ := f.FindPendingTasks(userID, limit)
	var overdue []store.TaskItem
	for _, item := range items {
		task := f.tasks[item.ID]
		if task.DueDate != nil {
			item.DueDate = task.DueDate
			overdue = append(overdue, item)
		}
	}
	return overdue, nil
}

func (f *fakeStore) FindBookmarks(userID string, limit int) ([]store.Bookmark, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.bookmarks, nil
}

func (f *fakeStore) FindTaskOwnedBy(taskID, userID string) (*store.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (f *fakeStore) MarkTaskDone(taskID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.tasks[taskID].Status = store.StatusDone
	return nil
}

func (f *fakeStore) CountTasks(userID string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	count := 0
	for _, task := range f.tasks {
		if task.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreateStandaloneTask(userID, title string) (*store.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.addTask(userID, title, ""), nil
}

func (f *fakeStore) FindProjectByName(userID, name string) (*store.Project, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, p := range f.projects {
		if p.UserID == userID && strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateTaskInProject(userID, projectID, title string) (*store.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.addTask(userID, title, projectID), nil
}

func (f *fakeStore) GetPlan(userID string) (store.Plan, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	if plan, ok := f.plans[userID]; ok {
		return plan, nil
	}
	return store.PlanFree, nil
}

func newTestExecutor(f *fakeStore) *Executor {
	return New(f, session.NewMemoryCache(session.DefaultTTL))
}

func TestListPendingEmptyState(t *testing.T) {
	exec := newTestExecutor(newFakeStore())

	reply, err := exec.Execute(context.Background(), command.Command{Kind: command.KindListPending}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if reply != msgAllCaughtUp {
		t.Errorf("expected all-caught-up message, got %q", reply)
	}
}

func TestListThenCompleteScenario(t *testing.T) {
	f := newFakeStore()
	project := f.addProject("user-1", "Acme")
	f.addTask("user-1", "Buy domain", "")
	f.addTask("user-1", "Write brief", project.ID)

	exec := newTestExecutor(f)
	ctx := context.Background()

	reply, err := exec.Execute(ctx, command.Command{Kind: command.KindListPending}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	// Most recent first: "Write brief" (Acme) then "Buy domain" (Quick task)
	if !strings.Contains(reply, "1. Write brief\n   Acme") {
		t.Errorf("reply missing project line:\n%s", reply)
	}
	if !strings.Contains(reply, "2. Buy domain\n   Quick task") {
		t.Errorf("reply missing quick-task line:\n%s", reply)
	}
	if !strings.Contains(reply, "done N") {
		t.Errorf("reply missing completion instruction:\n%s", reply)
	}

	reply, err = exec.Execute(ctx, command.Command{Kind: command.KindCompleteByIndex, Index: 2}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(reply, "Done: Buy domain") {
		t.Errorf("expected completion confirmation, got %q", reply)
	}

	// A second listing no longer shows the completed task
	reply, _ = exec.Execute(ctx, command.Command{Kind: command.KindListPending}, "user-1", "chat-1")
	if strings.Contains(reply, "Buy domain") {
		t.Errorf("completed task still listed:\n%s", reply)
	}
	if !strings.Contains(reply, "Write brief") {
		t.Errorf("remaining task missing:\n%s", reply)
	}
}

func TestCompleteByIndexWithoutCachedList(t *testing.T) {
	exec := newTestExecutor(newFakeStore())

	reply, err := exec.Execute(context.Background(), command.Command{Kind: command.KindCompleteByIndex, Index: 1}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if reply != msgListFirst {
		t.Errorf("expected list-first instruction, got %q", reply)
	}
}

func TestCompleteByIndexRange(t *testing.T) {
	f := newFakeStore()
	f.addTask("user-1", "Only task", "")

	exec := newTestExecutor(f)
	ctx := context.Background()
	_, _ = exec.Execute(ctx, command.Command{Kind: command.KindListPending}, "user-1", "chat-1")

	for _, index := range []int{0, 2, 99} {
		reply, err := exec.Execute(ctx, command.Command{Kind: command.KindCompleteByIndex, Index: index}, "user-1", "chat-1")
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if !strings.Contains(reply, "between 1 and 1") {
			t.Errorf("index %d: expected range message, got %q", index, reply)
		}
	}
}

func TestCompleteByIndexIdempotent(t *testing.T) {
	f := newFakeStore()
	f.addTask("user-1", "Ship it", "")

	exec := newTestExecutor(f)
	ctx := context.Background()
	_, _ = exec.Execute(ctx, command.Command{Kind: command.KindListPending}, "user-1", "chat-1")

	first, _ := exec.Execute(ctx, command.Command{Kind: command.KindCompleteByIndex, Index: 1}, "user-1", "chat-1")
	if !strings.Contains(first, "Done: Ship it") {
		t.Errorf("expected completion, got %q", first)
	}

	second, err := exec.Execute(ctx, command.Command{Kind: command.KindCompleteByIndex, Index: 1}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("second completion errored: %v", err)
	}
	if !strings.Contains(second, "already complete") {
		t.Errorf("expected already-complete reply, got %q", second)
	}
}

// A cached list from user A's session must never be actionable for user B,
// even under conversation-id collision.
func TestCompleteByIndexOwnershipIsolation(t *testing.T) {
	f := newFakeStore()
	task := f.addTask("user-a", "Private task", "")

	exec := newTestExecutor(f)
	ctx := context.Background()
	_, _ = exec.Execute(ctx, command.Command{Kind: command.KindListPending}, "user-a", "shared-chat")

	reply, err := exec.Execute(ctx, command.Command{Kind: command.KindCompleteByIndex, Index: 1}, "user-b", "shared-chat")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if reply != msgTaskNotFound {
		t.Errorf("expected not-found reply, got %q", reply)
	}
	if f.tasks[task.ID].Status == store.StatusDone {
		t.Error("another user's task was completed")
	}
}

func TestBookmarksDoNotPopulateCache(t *testing.T) {
	f := newFakeStore()
	f.addTask("user-1", "Real task", "")
	f.bookmarks = []store.Bookmark{{ID: "bm-1", Title: "Go docs", URL: "https://go.dev"}}

	exec := newTestExecutor(f)
	ctx := context.Background()

	// Cache a task list, then list bookmarks
	_, _ = exec.Execute(ctx, command.Command{Kind: command.KindListPending}, "user-1", "chat-1")
	reply, err := exec.Execute(ctx, command.Command{Kind: command.KindListBookmarks}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(reply, "[Go docs](https://go.dev)") {
		t.Errorf("bookmark not rendered as a link:\n%s", reply)
	}

	// done 1 still acts on the task list cached before the bookmarks listing
	reply, _ = exec.Execute(ctx, command.Command{Kind: command.KindCompleteByIndex, Index: 1}, "user-1", "chat-1")
	if !strings.Contains(reply, "Done: Real task") {
		t.Errorf("expected completion of the previously cached list, got %q", reply)
	}
}

func TestOverdueShowsDaysOverdue(t *testing.T) {
	f := newFakeStore()
	task := f.addTask("user-1", "Late report", "")

	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -3)
	task.DueDate = &due

	exec := newTestExecutor(f)
	exec.now = func() time.Time { return now }

	reply, err := exec.Execute(context.Background(), command.Command{Kind: command.KindListOverdue}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	// floor((todayStart - due)/1d): due 14:00 three days back, today start 00:00 -> 2 full days
	if !strings.Contains(reply, "2d overdue") {
		t.Errorf("expected days-overdue in reply:\n%s", reply)
	}
}

func TestAddTaskQuota(t *testing.T) {
	f := newFakeStore()
	for i := 0; i < store.FreePlanTaskLimit; i++ {
		f.addTask("user-1", fmt.Sprintf("task %d", i), "")
	}

	exec := newTestExecutor(f)
	reply, err := exec.Execute(context.Background(), command.Command{Kind: command.KindAddTask, Title: "One more"}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if reply != msgQuotaReached {
		t.Errorf("expected quota message, got %q", reply)
	}
	if count, _ := f.CountTasks("user-1"); count != store.FreePlanTaskLimit {
		t.Errorf("task count changed: %d", count)
	}
}

func TestAddTaskQuotaDoesNotApplyToPro(t *testing.T) {
	f := newFakeStore()
	f.plans["user-1"] = store.PlanPro
	for i := 0; i < store.FreePlanTaskLimit+10; i++ {
		f.addTask("user-1", fmt.Sprintf("task %d", i), "")
	}

	exec := newTestExecutor(f)
	reply, err := exec.Execute(context.Background(), command.Command{Kind: command.KindAddTask, Title: "One more"}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(reply, "Added") {
		t.Errorf("expected creation confirmation, got %q", reply)
	}
}

func TestAddTaskProjectNotFound(t *testing.T) {
	f := newFakeStore()

	exec := newTestExecutor(f)
	reply, err := exec.Execute(context.Background(),
		command.Command{Kind: command.KindAddTask, ProjectName: "Nonexistent Co", Title: "Call client"}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(reply, `"Nonexistent Co" not found`) {
		t.Errorf("expected project-not-found reply, got %q", reply)
	}
	if count, _ := f.CountTasks("user-1"); count != 0 {
		t.Errorf("task was created despite missing project: %d", count)
	}
}

func TestAddTaskToProject(t *testing.T) {
	f := newFakeStore()
	f.addProject("user-1", "Acme")

	exec := newTestExecutor(f)
	reply, err := exec.Execute(context.Background(),
		command.Command{Kind: command.KindAddTask, ProjectName: "acme", Title: "Call client"}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(reply, `"Call client" to Acme`) {
		t.Errorf("expected confirmation with project name, got %q", reply)
	}
}

func TestAddStandaloneTask(t *testing.T) {
	f := newFakeStore()

	exec := newTestExecutor(f)
	reply, err := exec.Execute(context.Background(),
		command.Command{Kind: command.KindAddTask, Title: "Quick one"}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(reply, `Added "Quick one"`) {
		t.Errorf("expected creation confirmation, got %q", reply)
	}
}

func TestHelpAndUnknown(t *testing.T) {
	exec := newTestExecutor(newFakeStore())
	ctx := context.Background()

	help, err := exec.Execute(ctx, command.Command{Kind: command.KindHelp}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(help, "done N") {
		t.Errorf("help missing command reference:\n%s", help)
	}

	unknown, err := exec.Execute(ctx, command.Command{Kind: command.KindUnknown, RawText: "gibberish"}, "user-1", "chat-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if unknown != msgUnknown {
		t.Errorf("expected unknown-command reply, got %q", unknown)
	}
}

// Store failures are the only class that propagates as an error.
func TestStoreFailurePropagates(t *testing.T) {
	f := newFakeStore()
	f.failWith = errors.New("connection refused")

	exec := newTestExecutor(f)
	_, err := exec.Execute(context.Background(), command.Command{Kind: command.KindListPending}, "user-1", "chat-1")
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
}
