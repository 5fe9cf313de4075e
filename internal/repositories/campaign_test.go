package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donation-platform/internal/models"
)

var campaignCols = []string{"id", "slug", "title", "summary", "description", "goal_amount", "raised_amount", "image_url", "status", "ends_at", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTargetFilter_WhereClause(t *testing.T) {
	where, args := TargetFilter{}.whereClause("title")
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = TargetFilter{Status: models.TargetActive, Query: " water "}.whereClause("name")
	assert.Equal(t, `WHERE status = $1 AND name ILIKE $2 ESCAPE '\'`, where)
	assert.Equal(t, []interface{}{models.TargetActive, "%water%"}, args)
}

func TestTargetFilter_WhereClauseEscapesWildcards(t *testing.T) {
	_, args := TargetFilter{Query: "100%"}.whereClause("title")
	assert.Equal(t, []interface{}{`%100\%%`}, args)

	_, args = TargetFilter{Query: `eid_gifts\2024`}.whereClause("title")
	assert.Equal(t, []interface{}{`%eid\_gifts\\2024%`}, args)
}

func TestCampaignRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM campaigns WHERE status = \$1`).
		WithArgs(models.TargetActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT .* FROM campaigns\s+WHERE status = \$1\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs(models.TargetActive, 10, 0).
		WillReturnRows(sqlmock.NewRows(campaignCols).
			AddRow(1, "clean-water", "Clean Water", "", "", 1000.0, 750.0, "", "active", nil, now, now).
			AddRow(2, "winter-kits", "Winter Kits", "", "", 1000.0, 1200.0, "", "active", now.Add(time.Hour), now, now))

	campaigns, total, err := repo.List(context.Background(), TargetFilter{Status: models.TargetActive, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, campaigns, 2)
	assert.Equal(t, 75.0, campaigns[0].Progress)
	assert.Nil(t, campaigns[0].EndsAt)
	assert.Equal(t, 100.0, campaigns[1].Progress)
	assert.NotNil(t, campaigns[1].EndsAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_GetBySlugNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	mock.ExpectQuery(`FROM campaigns WHERE slug = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySlug(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrTargetNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_CreateDuplicateSlug(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	mock.ExpectQuery(`INSERT INTO campaigns`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.CampaignInput{Slug: "dup", Title: "Dup", GoalAmount: 10, Status: models.TargetDraft})
	assert.True(t, errors.Is(err, models.ErrDuplicateEntry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCampaignRepository(db)

	mock.ExpectExec(`DELETE FROM campaigns WHERE id = \$1`).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	assert.True(t, errors.Is(err, models.ErrTargetNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_UpdateImage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPatientRepository(db)

	mock.ExpectExec(`UPDATE patients SET image_url = \$2`).
		WithArgs(3, "https://cdn.example.org/p3.jpg", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateImage(context.Background(), 3, "https://cdn.example.org/p3.jpg"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepository_ListSearchesTitle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProgramRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM programs WHERE title ILIKE \$1`).
		WithArgs("%orphan%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM programs\s+WHERE title ILIKE \$1`).
		WithArgs("%orphan%", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title", "description", "goal_amount", "raised_amount", "image_url", "status", "created_at", "updated_at"}).
			AddRow(4, "orphan-care", "Orphan Care", "", 0.0, 900.0, "", "active", now, now))

	programs, total, err := repo.List(context.Background(), TargetFilter{Query: "orphan"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, programs, 1)
	assert.Equal(t, 0.0, programs[0].Progress)
	assert.NoError(t, mock.ExpectationsWereMet())
}
