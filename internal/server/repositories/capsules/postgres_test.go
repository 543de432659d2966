package capsules

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

var (
	openDate = time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	created  = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	columns  = []string{"id", "user_id", "title", "message", "open_date", "has_images", "has_videos",
		"has_message", "notification_sent", "created_at", "updated_at"}
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func capsuleRow(id string, sent bool) []driver.Value {
	return []driver.Value{id, "u1", "title " + id, "msg", openDate, true, false, true, sent, created, created}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)INSERT INTO capsules .*RETURNING created_at, updated_at`).
		WithArgs("c1", "u1", "t", "m", openDate, true, false, true, false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	c, err := repo.Create(context.Background(), &models.Capsule{
		ID: "c1", UserID: "u1", Title: "t", Message: "m", OpenDate: openDate, HasImages: true, HasMessage: true,
	})
	require.NoError(t, err)
	assert.Equal(t, created, c.CreatedAt)
	assert.Equal(t, created, c.UpdatedAt)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO capsules`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Capsule{ID: "c1"})
	require.ErrorContains(t, err, "db error: db down")
}

func TestGetByIDForUser_OK(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM capsules WHERE id = \$1 AND user_id = \$2`).
		WithArgs("c1", "u1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(capsuleRow("c1", false)...))

	c, err := repo.GetByIDForUser(context.Background(), "c1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, openDate, c.OpenDate)
	assert.True(t, c.HasImages)
	assert.False(t, c.HasVideos)
	assert.True(t, c.HasMessage)
	assert.False(t, c.NotificationSent)
}

func TestGetByIDForUser_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM capsules WHERE id = \$1 AND user_id = \$2`).
		WithArgs("c1", "other").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIDForUser(context.Background(), "c1", "other")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByIDForUser_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM capsules`).WillReturnError(errors.New("conn reset"))

	_, err := repo.GetByIDForUser(context.Background(), "c1", "u1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrNotFound))
}

func TestListByUser_OrderedQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE user_id = \$1 ORDER BY open_date ASC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(capsuleRow("c1", false)...).
			AddRow(capsuleRow("c2", true)...))

	got, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.True(t, got[1].NotificationSent)
}

func TestListDueUnnotified(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := openDate.Add(time.Hour)

	mock.ExpectQuery(`WHERE open_date <= \$1 AND notification_sent = FALSE`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(capsuleRow("c1", false)...))

	got, err := repo.ListDueUnnotified(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

func TestListDueUnnotified_QueryErr(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE open_date <= \$1`).WillReturnError(errors.New("db err"))

	_, err := repo.ListDueUnnotified(context.Background(), openDate)
	require.ErrorContains(t, err, "failed to select capsules: db err")
}

func TestList_RowsErr(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(capsuleRow("c1", false)...).
			AddRow(capsuleRow("c2", false)...).
			RowError(1, errors.New("row-err")))

	_, err := repo.ListByUser(context.Background(), "u1")
	require.EqualError(t, err, "row-err")
}

func TestList_ScanErr(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	row := capsuleRow("c1", false)
	row[4] = "not-a-time"
	mock.ExpectQuery(`WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row...))

	_, err := repo.ListByUser(context.Background(), "u1")
	require.Error(t, err)
}

func TestMarkNotified(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"wins transition", 1, true},
		{"already marked", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectExec(`UPDATE capsules SET notification_sent = TRUE, updated_at = now\(\) WHERE id = \$1 AND notification_sent = FALSE`).
				WithArgs("c1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.MarkNotified(context.Background(), "c1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMarkNotified_Errors(t *testing.T) {
	t.Run("exec", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`UPDATE capsules`).WillReturnError(errors.New("db err"))

		_, err := repo.MarkNotified(context.Background(), "c1")
		require.ErrorContains(t, err, "failed to mark notified")
	})
	t.Run("rows affected", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`UPDATE capsules`).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

		_, err := repo.MarkNotified(context.Background(), "c1")
		require.ErrorContains(t, err, "failed to get rows affected")
	})
}

func TestDeleteForUser(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM capsules WHERE id = \$1 AND user_id = \$2`).
			WithArgs("c1", "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteForUser(context.Background(), "c1", "u1"))
	})
	t.Run("not owned", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM capsules`).
			WithArgs("c1", "u2").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, repo.DeleteForUser(context.Background(), "c1", "u2"), common.ErrNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM capsules`).WillReturnError(errors.New("db err"))

		require.ErrorContains(t, repo.DeleteForUser(context.Background(), "c1", "u1"), "failed to delete capsule")
	})
}
