package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Queries, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return New(mockDB), mock
}

func TestBuildListTasks(t *testing.T) {
	t.Parallel()

	t.Run("条件なしはプロジェクトのみで絞り込むこと", func(t *testing.T) {
		t.Parallel()

		query, args := buildListTasks(TaskFilter{ProjectID: "p1"})
		assert.NotContains(t, query, "status IN")
		assert.Equal(t, []any{"p1"}, args)
	})

	t.Run("すべての条件が引数の順に組み立てられること", func(t *testing.T) {
		t.Parallel()

		query, args := buildListTasks(TaskFilter{
			ProjectID:  "p1",
			Statuses:   []string{"todo", "done"},
			AssigneeID: "u1",
			LabelIDs:   []string{"l1", "l2"},
			Query:      "50%_off",
		})
		assert.Contains(t, query, "t.status IN (?,?)")
		assert.Contains(t, query, "t.assignee_id = ?")
		assert.Equal(t, 2, strings.Count(query, "tl.label_id = ?"))
		assert.Equal(t, []any{"p1", "todo", "done", "u1", "l1", "l2", `%50\%\_off%`, `%50\%\_off%`}, args)
	})

	t.Run("担当者なしの指定はIS NULLになること", func(t *testing.T) {
		t.Parallel()

		query, args := buildListTasks(TaskFilter{ProjectID: "p1", AssigneeID: UnassignedFilter})
		assert.Contains(t, query, "t.assignee_id IS NULL")
		assert.Equal(t, []any{"p1"}, args)
	})
}

func TestFold(t *testing.T) {
	t.Parallel()

	t.Run("非ASCII文字も小文字化されること", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "äpfel über", Fold("ÄPFEL Über"))
	})

	t.Run("SQL関数はTEXTを小文字化しそれ以外はそのまま返すこと", func(t *testing.T) {
		t.Parallel()

		for _, tc := range []struct {
			in   any
			want any
		}{
			{in: "Äpfel", want: "äpfel"},
			{in: []byte("ÉCOLE"), want: "école"},
			{in: nil, want: nil},
			{in: int64(42), want: int64(42)},
		} {
			got, err := foldScalar(nil, []driver.Value{tc.in})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		}
	})

	t.Run("キーワード検索はFoldFuncで列を小文字化すること", func(t *testing.T) {
		t.Parallel()

		query, args := buildListTasks(TaskFilter{ProjectID: "p1", Query: "Äpfel"})
		assert.Equal(t, 2, strings.Count(query, FoldFunc+"(t."))
		assert.NotContains(t, query, " lower(")
		assert.Equal(t, []any{"p1", "%äpfel%", "%äpfel%"}, args)
	})
}

func TestQueriesErrors(t *testing.T) {
	t.Parallel()

	t.Run("クエリの失敗がそのまま返ること", func(t *testing.T) {
		t.Parallel()

		q, mock := newMock(t)
		failure := errors.New("disk I/O error")
		mock.ExpectQuery(regexp.QuoteMeta(listActivities)).
			WithArgs("p1", 10).
			WillReturnError(failure)

		_, err := q.ListActivities(context.Background(), "p1", 10)
		require.ErrorIs(t, err, failure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("行の読み込み途中の失敗が返ること", func(t *testing.T) {
		t.Parallel()

		q, mock := newMock(t)
		failure := errors.New("connection reset")
		rows := sqlmock.NewRows([]string{"project_id", "user_id", "role", "joined_at", "email", "name"}).
			AddRow("p1", "u1", "owner", time.Now(), "a@example.com", "A").
			RowError(0, failure)
		mock.ExpectQuery(regexp.QuoteMeta(listMembers)).WithArgs("p1").WillReturnRows(rows)

		_, err := q.ListMembers(context.Background(), "p1")
		require.ErrorIs(t, err, failure)
	})

	t.Run("該当行なしはIsNotFoundで判定できること", func(t *testing.T) {
		t.Parallel()

		q, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(getUserByID)).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

		_, err := q.GetUserByID(context.Background(), "nobody")
		assert.True(t, IsNotFound(err))
		assert.False(t, IsUniqueViolation(err))
	})

	t.Run("付与と解除は影響行数で変化の有無を返すこと", func(t *testing.T) {
		t.Parallel()

		q, mock := newMock(t)
		now := time.Now()
		mock.ExpectExec(regexp.QuoteMeta(attachLabel)).WithArgs("t1", "l1", now).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(attachLabel)).WithArgs("t1", "l1", now).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(detachLabel)).WithArgs("t1", "l1").WillReturnResult(sqlmock.NewResult(0, 0))

		added, err := q.AttachLabel(context.Background(), "t1", "l1", now)
		require.NoError(t, err)
		assert.True(t, added)
		added, err = q.AttachLabel(context.Background(), "t1", "l1", now)
		require.NoError(t, err)
		assert.False(t, added)
		removed, err := q.DetachLabel(context.Background(), "t1", "l1")
		require.NoError(t, err)
		assert.False(t, removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("影響行数を取得できない場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		q, mock := newMock(t)
		failure := errors.New("rows affected unavailable")
		mock.ExpectExec(regexp.QuoteMeta(detachLabel)).WithArgs("t1", "l1").WillReturnResult(sqlmock.NewErrorResult(failure))

		_, err := q.DetachLabel(context.Background(), "t1", "l1")
		require.ErrorIs(t, err, failure)
	})

	t.Run("トランザクション内のクエリはトランザクション経由で実行されること", func(t *testing.T) {
		t.Parallel()

		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = mockDB.Close() }()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(deleteTask)).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := mockDB.Begin()
		require.NoError(t, err)
		require.NoError(t, New(mockDB).WithTx(tx).DeleteTask(context.Background(), "t1"))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
