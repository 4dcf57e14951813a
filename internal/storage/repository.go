package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"multitool/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

// dsn enables foreign keys and a busy timeout on every pooled connection.
func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping backs the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

// notFound maps sql.ErrNoRows to core.ErrNotFound and wraps everything else.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func unix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("create user: %w", core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", row.ID)
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, notFound("get user by email", err)
	}
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return core.User{}, notFound("get user by id", err)
	}
	return toCoreUser(row), nil
}

func toCoreUser(u User) core.User {
	return core.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    unix(u.CreatedAt),
	}
}

// Sessions

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) error {
	err := r.queries.CreateSession(ctx, CreateSessionParams{
		Token:     s.Token,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SessionByToken(ctx context.Context, token string) (core.Session, error) {
	row, err := r.queries.GetSession(ctx, token)
	if err != nil {
		return core.Session{}, notFound("get session", err)
	}
	return core.Session{Token: row.Token, UserID: row.UserID, ExpiresAt: unix(row.ExpiresAt)}, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if err := r.queries.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now.
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

// Tax parameters

func (r *SQLiteRepository) CreateTaxParameters(ctx context.Context, p core.TaxYearParameters) (core.TaxYearParameters, error) {
	it, ni := p.IncomeTax, p.NationalInsurance
	row, err := r.queries.CreateTaxParameters(ctx, CreateTaxParametersParams{
		UserID:             p.UserID,
		Year:               int64(p.Year),
		PersonalAllowance:  it.PersonalAllowance,
		BasicRate:          it.BasicRate,
		HigherRate:         it.HigherRate,
		AdditionalRate:     it.AdditionalRate,
		BasicThreshold:     it.BasicThreshold,
		HigherThreshold:    it.HigherThreshold,
		TaperThreshold:     it.TaperThreshold,
		PrimaryThreshold:   ni.PrimaryThreshold,
		UpperEarningsLimit: ni.UpperEarningsLimit,
		PrimaryRate:        ni.PrimaryRate,
		UpperRate:          ni.UpperRate,
		SelfPrimaryRate:    ni.SelfPrimaryRate,
		SelfUpperRate:      ni.SelfUpperRate,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.TaxYearParameters{}, fmt.Errorf("create tax parameters for %d: %w", p.Year, core.ErrConflict)
		}
		return core.TaxYearParameters{}, fmt.Errorf("create tax parameters: %w", err)
	}

	slog.InfoContext(ctx, "Tax parameters saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"year", row.Year)

	return toCoreParams(row), nil
}

func (r *SQLiteRepository) ListTaxParameters(ctx context.Context, userID int64) ([]core.TaxYearParameters, error) {
	rows, err := r.queries.ListTaxParametersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tax parameters: %w", err)
	}

	params := make([]core.TaxYearParameters, len(rows))
	for i, row := range rows {
		params[i] = toCoreParams(row)
	}
	return params, nil
}

// Years returns the user's tax years in ascending order.
func (r *SQLiteRepository) Years(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.queries.ListYearsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}

	years := make([]int, len(rows))
	for i, y := range rows {
		years[i] = int(y)
	}
	return years, nil
}

// TaxParametersByID returns set id only when userID owns it.
func (r *SQLiteRepository) TaxParametersByID(ctx context.Context, userID, id int64) (core.TaxYearParameters, error) {
	row, err := r.queries.GetTaxParametersByID(ctx, GetTaxParametersByIDParams{
		ID:     id,
		UserID: userID,
	})
	if err != nil {
		return core.TaxYearParameters{}, notFound(fmt.Sprintf("get tax parameters %d", id), err)
	}
	return toCoreParams(row), nil
}

func (r *SQLiteRepository) TaxParametersByYear(ctx context.Context, userID int64, year int) (core.TaxYearParameters, error) {
	row, err := r.queries.GetTaxParametersByYear(ctx, GetTaxParametersByYearParams{
		UserID: userID,
		Year:   int64(year),
	})
	if err != nil {
		return core.TaxYearParameters{}, notFound(fmt.Sprintf("get tax parameters for %d", year), err)
	}
	return toCoreParams(row), nil
}

// UpdateTaxParameters overwrites the row identified by p.ID and p.UserID.
// A row owned by someone else is reported as core.ErrNotFound.
func (r *SQLiteRepository) UpdateTaxParameters(ctx context.Context, p core.TaxYearParameters) (core.TaxYearParameters, error) {
	it, ni := p.IncomeTax, p.NationalInsurance
	row, err := r.queries.UpdateTaxParameters(ctx, UpdateTaxParametersParams{
		Year:               int64(p.Year),
		PersonalAllowance:  it.PersonalAllowance,
		BasicRate:          it.BasicRate,
		HigherRate:         it.HigherRate,
		AdditionalRate:     it.AdditionalRate,
		BasicThreshold:     it.BasicThreshold,
		HigherThreshold:    it.HigherThreshold,
		TaperThreshold:     it.TaperThreshold,
		PrimaryThreshold:   ni.PrimaryThreshold,
		UpperEarningsLimit: ni.UpperEarningsLimit,
		PrimaryRate:        ni.PrimaryRate,
		UpperRate:          ni.UpperRate,
		SelfPrimaryRate:    ni.SelfPrimaryRate,
		SelfUpperRate:      ni.SelfUpperRate,
		ID:                 p.ID,
		UserID:             p.UserID,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.TaxYearParameters{}, fmt.Errorf("update tax parameters %d: %w", p.ID, core.ErrConflict)
		}
		return core.TaxYearParameters{}, notFound(fmt.Sprintf("update tax parameters %d", p.ID), err)
	}

	slog.InfoContext(ctx, "Tax parameters updated", "id", row.ID, "year", row.Year)
	return toCoreParams(row), nil
}

func (r *SQLiteRepository) DeleteTaxParameters(ctx context.Context, userID, id int64) error {
	n, err := r.queries.DeleteTaxParameters(ctx, DeleteTaxParametersParams{ID: id, UserID: userID})
	if err != nil {
		return fmt.Errorf("delete tax parameters %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete tax parameters %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Tax parameters deleted", "id", id, "user_id", userID)
	return nil
}

func toCoreParams(row TaxParameter) core.TaxYearParameters {
	return core.TaxYearParameters{
		ID:     row.ID,
		UserID: row.UserID,
		Year:   int(row.Year),
		IncomeTax: core.IncomeTax{
			PersonalAllowance: row.PersonalAllowance,
			BasicRate:         row.BasicRate,
			HigherRate:        row.HigherRate,
			AdditionalRate:    row.AdditionalRate,
			BasicThreshold:    row.BasicThreshold,
			HigherThreshold:   row.HigherThreshold,
			TaperThreshold:    row.TaperThreshold,
		},
		NationalInsurance: core.NationalInsurance{
			PrimaryThreshold:   row.PrimaryThreshold,
			UpperEarningsLimit: row.UpperEarningsLimit,
			PrimaryRate:        row.PrimaryRate,
			UpperRate:          row.UpperRate,
			SelfPrimaryRate:    row.SelfPrimaryRate,
			SelfUpperRate:      row.SelfUpperRate,
		},
		CreatedAt: unix(row.CreatedAt),
		UpdatedAt: unix(row.UpdatedAt),
	}
}

// Reminders

func (r *SQLiteRepository) CreateReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	row, err := r.queries.CreateReminder(ctx, CreateReminderParams{
		UserID:  rem.UserID,
		Title:   rem.Title,
		Content: rem.Content,
	})
	if err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}

	slog.InfoContext(ctx, "Reminder saved to SQLite", "id", row.ID, "user_id", row.UserID)
	return toCoreReminder(row), nil
}

func (r *SQLiteRepository) ListReminders(ctx context.Context, userID int64) ([]core.Reminder, error) {
	rows, err := r.queries.ListRemindersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	reminders := make([]core.Reminder, len(rows))
	for i, row := range rows {
		reminders[i] = toCoreReminder(row)
	}
	return reminders, nil
}

func (r *SQLiteRepository) Reminder(ctx context.Context, userID, id int64) (core.Reminder, error) {
	row, err := r.queries.GetReminder(ctx, GetReminderParams{ID: id, UserID: userID})
	if err != nil {
		return core.Reminder{}, notFound(fmt.Sprintf("get reminder %d", id), err)
	}
	return toCoreReminder(row), nil
}

func (r *SQLiteRepository) UpdateReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	row, err := r.queries.UpdateReminder(ctx, UpdateReminderParams{
		Title:   rem.Title,
		Content: rem.Content,
		ID:      rem.ID,
		UserID:  rem.UserID,
	})
	if err != nil {
		return core.Reminder{}, notFound(fmt.Sprintf("update reminder %d", rem.ID), err)
	}
	return toCoreReminder(row), nil
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, userID, id int64) error {
	n, err := r.queries.DeleteReminder(ctx, DeleteReminderParams{ID: id, UserID: userID})
	if err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete reminder %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func toCoreReminder(row Reminder) core.Reminder {
	return core.Reminder{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Content:   row.Content,
		CreatedAt: unix(row.CreatedAt),
		UpdatedAt: unix(row.UpdatedAt),
	}
}

// Activity

// RecordActivity stores a, keyed by messageID. It returns false when the
// message was already recorded, which makes redelivered messages harmless.
func (r *SQLiteRepository) RecordActivity(ctx context.Context, messageID string, a core.Activity) (bool, error) {
	n, err := r.queries.InsertActivity(ctx, InsertActivityParams{
		UserID:     a.UserID,
		Kind:       a.Kind,
		SubjectID:  a.SubjectID,
		Payload:    a.Payload,
		MessageID:  messageID,
		OccurredAt: a.OccurredAt.Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("record activity: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListActivity(ctx context.Context, userID int64, limit int) ([]core.Activity, error) {
	rows, err := r.queries.ListActivityByUser(ctx, ListActivityByUserParams{
		UserID: userID,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	entries := make([]core.Activity, len(rows))
	for i, row := range rows {
		entries[i] = core.Activity{
			ID:         row.ID,
			UserID:     row.UserID,
			Kind:       row.Kind,
			SubjectID:  row.SubjectID,
			Payload:    row.Payload,
			OccurredAt: unix(row.OccurredAt),
		}
	}
	return entries, nil
}
