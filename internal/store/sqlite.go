package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements TaskStore over a local SQLite database.
// It runs schema migrations automatically on initialization.
type SQLiteStore struct {
	db   *sql.DB
	path string

	// now is injectable for calendar-day queries in tests.
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database under dataPath and
// runs migrations. Returns an error if the database cannot be opened or
// migrations fail.
func NewSQLiteStore(dataPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "pulsebot.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{
		db:   db,
		path: dataPath,
		now:  time.Now,
	}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates necessary tables
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			plan TEXT NOT NULL DEFAULT 'free',
			telegram_chat_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			project_id TEXT,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			priority TEXT NOT NULL DEFAULT 'medium',
			due_date DATETIME,
			url TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_chat ON users(telegram_chat_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Close closes the database connection and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dayBounds returns [start of today, start of tomorrow) in server-local time.
func (s *SQLiteStore) dayBounds() (time.Time, time.Time) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// FindPendingTasks returns the user's most recent non-done tasks.
func (s *SQLiteStore) FindPendingTasks(userID string, limit int) ([]TaskItem, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.title, COALESCE(p.name, ''), t.priority
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE t.user_id = ? AND t.status != 'done' AND t.url IS NULL
		ORDER BY t.created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTaskItems(rows, false)
}

// FindDueToday returns non-done tasks due within the current calendar day,
// highest priority first.
func (s *SQLiteStore) FindDueToday(userID string, limit int) ([]TaskItem, error) {
	dayStart, dayEnd := s.dayBounds()

	rows, err := s.db.Query(`
		SELECT t.id, t.title, COALESCE(p.name, ''), t.priority
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE t.user_id = ? AND t.status != 'done' AND t.url IS NULL
			AND t.due_date >= ? AND t.due_date < ?
		ORDER BY CASE t.priority
			WHEN 'high' THEN 0
			WHEN 'medium' THEN 1
			ELSE 2
		END, t.created_at DESC
		LIMIT ?
	`, userID, dayStart, dayEnd, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTaskItems(rows, false)
}

// FindOverdue returns non-done tasks due before the start of today, oldest
// due date first.
func (s *SQLiteStore) FindOverdue(userID string, limit int) ([]TaskItem, error) {
	dayStart, _ := s.dayBounds()

	rows, err := s.db.Query(`
		SELECT t.id, t.title, COALESCE(p.name, ''), t.priority, t.due_date
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE t.user_id = ? AND t.status != 'done' AND t.url IS NULL
			AND t.due_date IS NOT NULL AND t.due_date < ?
		ORDER BY t.due_date ASC
		LIMIT ?
	`, userID, dayStart, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTaskItems(rows, true)
}

// scanTaskItems collects listing rows; withDue selects the overdue shape.
func scanTaskItems(rows *sql.Rows, withDue bool) ([]TaskItem, error) {
	var items []TaskItem
	for rows.Next() {
		var item TaskItem
		var err error
		if withDue {
			var due sql.NullTime
			err = rows.Scan(&item.ID, &item.Title, &item.ProjectName, &item.Priority, &due)
			if due.Valid {
				item.DueDate = &due.Time
			}
		} else {
			err = rows.Scan(&item.ID, &item.Title, &item.ProjectName, &item.Priority)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindBookmarks returns the user's most recent bookmarks.
func (s *SQLiteStore) FindBookmarks(userID string, limit int) ([]Bookmark, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.title, t.url, COALESCE(p.name, '')
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE t.user_id = ? AND t.url IS NOT NULL
		ORDER BY t.created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bookmarks []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.Title, &b.URL, &b.ProjectName); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// FindTaskOwnedBy returns the task scoped to the owner, or (nil, nil) when
// it does not exist or belongs to another user.
func (s *SQLiteStore) FindTaskOwnedBy(taskID, userID string) (*Task, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, COALESCE(project_id, ''), title, status, priority, due_date, created_at, completed_at
		FROM tasks
		WHERE id = ? AND user_id = ? AND url IS NULL
	`, taskID, userID)

	var task Task
	var due, completed sql.NullTime
	err := row.Scan(&task.ID, &task.UserID, &task.ProjectID, &task.Title, &task.Status,
		&task.Priority, &due, &task.CreatedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if due.Valid {
		task.DueDate = &due.Time
	}
	if completed.Valid {
		task.CompletedAt = &completed.Time
	}
	return &task, nil
}

// MarkTaskDone marks a task complete and records the completion time.
func (s *SQLiteStore) MarkTaskDone(taskID string) error {
	_, err := s.db.Exec(`
		UPDATE tasks SET status = 'done', completed_at = CURRENT_TIMESTAMP WHERE id = ?
	`, taskID)
	return err
}

// CountTasks returns the user's total task count, excluding bookmarks.
func (s *SQLiteStore) CountTasks(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM tasks WHERE user_id = ? AND url IS NULL
	`, userID).Scan(&count)
	return count, err
}

// CreateStandaloneTask creates a task with no project link.
func (s *SQLiteStore) CreateStandaloneTask(userID, title string) (*Task, error) {
	return s.createTask(userID, "", title)
}

// CreateTaskInProject creates a task linked to a project.
func (s *SQLiteStore) CreateTaskInProject(userID, projectID, title string) (*Task, error) {
	return s.createTask(userID, projectID, title)
}

func (s *SQLiteStore) createTask(userID, projectID, title string) (*Task, error) {
	task := &Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		Title:     title,
		Status:    StatusPending,
		Priority:  PriorityMedium,
		CreatedAt: s.now(),
	}

	var project any
	if projectID != "" {
		project = projectID
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (id, user_id, project_id, title, status, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.UserID, project, task.Title, task.Status, task.Priority, task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// SetTaskSchedule sets a task's due date and priority.
func (s *SQLiteStore) SetTaskSchedule(taskID string, due time.Time, priority Priority) error {
	_, err := s.db.Exec(`
		UPDATE tasks SET due_date = ?, priority = ? WHERE id = ?
	`, due, priority, taskID)
	return err
}

// CreateBookmark saves a link for the user.
func (s *SQLiteStore) CreateBookmark(userID, title, url string) (*Bookmark, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO tasks (id, user_id, title, status, url, created_at)
		VALUES (?, ?, ?, 'pending', ?, ?)
	`, id, userID, title, url, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create bookmark: %w", err)
	}
	return &Bookmark{ID: id, Title: title, URL: url}, nil
}

// FindProjectByName resolves a project by case-insensitive exact name match.
// Returns (nil, nil) when no project matches.
func (s *SQLiteStore) FindProjectByName(userID, name string) (*Project, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, name, created_at
		FROM projects
		WHERE user_id = ? AND LOWER(name) = LOWER(?)
	`, userID, name)

	var project Project
	err := row.Scan(&project.ID, &project.UserID, &project.Name, &project.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project for the user.
func (s *SQLiteStore) CreateProject(userID, name string) (*Project, error) {
	project := &Project{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO projects (id, user_id, name, created_at) VALUES (?, ?, ?, ?)
	`, project.ID, project.UserID, project.Name, project.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetPlan returns the user's billing plan.
func (s *SQLiteStore) GetPlan(userID string) (Plan, error) {
	var plan Plan
	err := s.db.QueryRow(`SELECT plan FROM users WHERE id = ?`, userID).Scan(&plan)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanFree, nil
	}
	if err != nil {
		return "", err
	}
	return plan, nil
}

// CreateUser creates a user on the given plan.
func (s *SQLiteStore) CreateUser(plan Plan) (*User, error) {
	user := &User{
		ID:        uuid.NewString(),
		Plan:      plan,
		CreatedAt: s.now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO users (id, plan, created_at) VALUES (?, ?, ?)
	`, user.ID, user.Plan, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// LinkChat associates a Telegram chat with a user account.
func (s *SQLiteStore) LinkChat(userID, chatID string) error {
	result, err := s.db.Exec(`
		UPDATE users SET telegram_chat_id = ? WHERE id = ?
	`, chatID, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// FindUserByChatID resolves the account linked to a Telegram chat.
// Returns (nil, nil) when no account is linked.
func (s *SQLiteStore) FindUserByChatID(chatID string) (*User, error) {
	row := s.db.QueryRow(`
		SELECT id, plan, COALESCE(telegram_chat_id, ''), created_at
		FROM users WHERE telegram_chat_id = ?
	`, chatID)

	var user User
	err := row.Scan(&user.ID, &user.Plan, &user.TelegramChatID, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListLinkedUsers returns every user with a linked Telegram chat.
func (s *SQLiteStore) ListLinkedUsers() ([]*User, error) {
	rows, err := s.db.Query(`
		SELECT id, plan, telegram_chat_id, created_at
		FROM users WHERE telegram_chat_id IS NOT NULL AND telegram_chat_id != ''
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Plan, &user.TelegramChatID, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
