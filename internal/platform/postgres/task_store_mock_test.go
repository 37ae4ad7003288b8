package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return NewPostgresTaskStore(db, nil), mock
}

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "state"})
}

func TestPostgresTaskStore_Ping(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT NOW()").
		WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow(now))

	got, err := s.Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, now.Equal(got))
}

func TestPostgresTaskStore_PingFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT NOW()").WillReturnError(errors.New("connection refused"))

	_, err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresTaskStore_List(t *testing.T) {
	t.Run("rows_in_order_with_null_state", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, title, state FROM tasks ORDER BY id ASC").
			WillReturnRows(taskRows().
				AddRow("a", "first", true).
				AddRow("b", "second", nil))

		tasks, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []domain.Task{
			{ID: "a", Title: "first", State: true},
			{ID: "b", Title: "second", State: false},
		}, tasks)
	})

	t.Run("empty_table_is_empty_slice", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, title, state FROM tasks ORDER BY id ASC").
			WillReturnRows(taskRows())

		tasks, err := s.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	t.Run("row_error", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, title, state FROM tasks ORDER BY id ASC").
			WillReturnRows(taskRows().
				AddRow("a", "first", true).
				RowError(0, errors.New("stream broke")))

		_, err := s.List(context.Background())
		require.Error(t, err)
	})
}

func TestPostgresTaskStore_Get(t *testing.T) {
	const query = "SELECT id, title, state FROM tasks WHERE id = $1"

	t.Run("found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).WithArgs("a").
			WillReturnRows(taskRows().AddRow("a", "first", false))

		task, err := s.Get(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, &domain.Task{ID: "a", Title: "first"}, task)
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).WithArgs("nope").WillReturnRows(taskRows())

		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_Create(t *testing.T) {
	const query = "INSERT INTO tasks (id, title, state) VALUES ($1, $2, $3) RETURNING id, title, state"

	t.Run("inserts_and_returns_row", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).WithArgs("id-1", "Buy milk", true).
			WillReturnRows(taskRows().AddRow("id-1", "Buy milk", true))

		created, err := s.Create(context.Background(), &domain.Task{ID: "id-1", Title: "Buy milk", State: true})
		require.NoError(t, err)
		assert.Equal(t, &domain.Task{ID: "id-1", Title: "Buy milk", State: true}, created)
	})

	t.Run("invalid_task_never_queries", func(t *testing.T) {
		s, _ := newMockStore(t)

		_, err := s.Create(context.Background(), &domain.Task{ID: "id-1"})
		assert.Error(t, err)
	})

	t.Run("duplicate_id", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).WithArgs("id-1", "Buy milk", false).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

		_, err := s.Create(context.Background(), &domain.Task{ID: "id-1", Title: "Buy milk"})
		assert.ErrorIs(t, err, store.ErrDuplicate)

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "create", storeErr.Operation)
	})
}

func TestPostgresTaskStore_Update(t *testing.T) {
	title := "Renamed"
	done := true

	t.Run("partial_update", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("UPDATE tasks SET state = $1 WHERE id = $2 RETURNING id, title, state").
			WithArgs(true, "a").
			WillReturnRows(taskRows().AddRow("a", "first", true))

		task, err := s.Update(context.Background(), "a", domain.TaskPatch{State: &done})
		require.NoError(t, err)
		assert.True(t, task.State)
	})

	t.Run("empty_patch_reads_current_row", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, title, state FROM tasks WHERE id = $1").WithArgs("a").
			WillReturnRows(taskRows().AddRow("a", "first", false))

		task, err := s.Update(context.Background(), "a", domain.TaskPatch{})
		require.NoError(t, err)
		assert.Equal(t, "first", task.Title)
	})

	t.Run("row_vanished", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("UPDATE tasks SET title = $1 WHERE id = $2 RETURNING id, title, state").
			WithArgs("Renamed", "a").
			WillReturnRows(taskRows())

		_, err := s.Update(context.Background(), "a", domain.TaskPatch{Title: &title})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestPostgresTaskStore_Delete(t *testing.T) {
	const query = "DELETE FROM tasks WHERE id = $1 RETURNING id, title, state"

	t.Run("returns_deleted_row", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).WithArgs("a").
			WillReturnRows(taskRows().AddRow("a", "first", true))

		task, err := s.Delete(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, "a", task.ID)
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).WithArgs("a").WillReturnRows(taskRows())

		_, err := s.Delete(context.Background(), "a")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("database_error_is_wrapped", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).WithArgs("a").WillReturnError(errors.New("boom"))

		_, err := s.Delete(context.Background(), "a")
		require.Error(t, err)
		assert.NotErrorIs(t, err, store.ErrTaskNotFound)

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "task", storeErr.Entity)
		assert.Equal(t, "delete", storeErr.Operation)
		assert.Contains(t, err.Error(), "boom")
	})
}
