package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/timecapsule/internal/common"
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

func TestGetByID(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(m sqlmock.Sqlmock)
		wantErrIs error
		wantErr   string
		wantNotif bool
	}{
		{
			name: "found",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT id, email, name, email_notifications FROM users`).
					WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "email_notifications"}).
						AddRow("u1", "ann@example.com", "Ann", true))
			},
			wantNotif: true,
		},
		{
			name: "not found",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM users`).WithArgs("u1").WillReturnError(sql.ErrNoRows)
			},
			wantErrIs: common.ErrNotFound,
		},
		{
			name: "db error",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM users`).WithArgs("u1").WillReturnError(errors.New("conn reset"))
			},
			wantErr: "db error: conn reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			tt.setup(mock)

			u, err := repo.GetByID(context.Background(), "u1")
			switch {
			case tt.wantErrIs != nil:
				require.ErrorIs(t, err, tt.wantErrIs)
			case tt.wantErr != "":
				require.EqualError(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, "ann@example.com", u.Email)
				assert.Equal(t, "Ann", u.Name)
				assert.Equal(t, tt.wantNotif, u.EmailNotifications)
			}
		})
	}
}
