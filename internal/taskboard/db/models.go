package db

import (
	"database/sql"
	"time"
)

// User はusersテーブルの行。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Project はprojectsテーブルの行。
type Project struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectWithRole はユーザーが所属するプロジェクトとそのロール。
type ProjectWithRole struct {
	Project
	Role string
}

// ProjectMember はproject_membersテーブルの行とユーザー情報。
type ProjectMember struct {
	ProjectID string
	UserID    string
	Role      string
	JoinedAt  time.Time
	Email     string
	Name      string
}

// Task はtasksテーブルの行。
type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  sql.NullString
	CreatedBy   string
	DueDate     sql.NullTime
	CompletedAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Label はlabelsテーブルの行。
type Label struct {
	ID        string
	ProjectID string
	Name      string
	Color     string
	CreatedAt time.Time
}

// TaskLabel はタスクに付与されたラベル。
type TaskLabel struct {
	TaskID string
	Label
}

// View はviewsテーブルの行。Filtersは保存されたフィルター条件のJSON。
type View struct {
	ID        string
	ProjectID string
	UserID    string
	Name      string
	Filters   string
	CreatedAt time.Time
}

// Activity はactivitiesテーブルの行。
type Activity struct {
	ID            string
	ProjectID     string
	AggregateID   string
	AggregateType string
	EventType     string
	ActorID       string
	Data          string
	CreatedAt     time.Time
}
