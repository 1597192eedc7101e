package repository

import (
	"context"
	"testing"
	"time"

	"creatorhub/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewContentRepo(db, zerolog.Nop())

	created := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "user_id", "content_type", "title", "content", "metadata", "created_at"}

	t.Run("filtered by type", func(t *testing.T) {
		mock.ExpectQuery(`FROM generated_content WHERE user_id = \$1 AND content_type = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
			WithArgs("user-1", "idea", 20, 0).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("c-1", "user-1", "idea", "Hook ideas", "desc", []byte(`{"topic":"fitness","engagement_potential":80}`), created))

		ct := model.ContentTypeIdea
		items, err := repo.ListByUser(context.Background(), "user-1", &ct, 20, 0)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, model.ContentTypeIdea, items[0].ContentType)
		assert.Equal(t, "fitness", items[0].Metadata["topic"])
		assert.EqualValues(t, 80, items[0].Metadata["engagement_potential"])
	})

	t.Run("all types", func(t *testing.T) {
		mock.ExpectQuery(`FROM generated_content WHERE user_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
			WithArgs("user-1", 5, 10).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("c-2", "user-1", "repurposed_video", "Vlog", "transcript", []byte(`not json`), created))

		items, err := repo.ListByUser(context.Background(), "user-1", nil, 5, 10)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Empty(t, items[0].Metadata)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewContentRepo(db, zerolog.Nop())

	mock.ExpectExec(`DELETE FROM generated_content WHERE id = \$1 AND user_id = \$2`).
		WithArgs("c-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteForUser(context.Background(), "c-1", "user-1"))

	mock.ExpectExec(`DELETE FROM generated_content`).
		WithArgs("c-1", "someone-else").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteForUser(context.Background(), "c-1", "someone-else"), ErrContentNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "primary_niche", "target_audience", "created_at",
			"subscription_plan", "subscription_end_date",
			"content_ideas_used_this_month", "video_repurposing_used_this_month",
			"copyright_alerts_used_this_month", "last_usage_reset",
		}).AddRow("user-1", "a@b.c", "fitness", "beginners", end, "PRO", end, 4, 1, 0, nil))

	u, err := repo.GetUserByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.PlanPro, u.Usage.Plan)
	require.NotNil(t, u.Usage.SubscriptionEndDate)
	assert.True(t, u.Usage.SubscriptionEndDate.Equal(end))
	assert.Nil(t, u.Usage.LastUsageResetAt)
	assert.Equal(t, 4, u.Usage.IdeasUsed)
	assert.Equal(t, "fitness", u.PrimaryNiche)

	mock.ExpectQuery(`COALESCE\(content_ideas_used_this_month, 0\).* FROM users WHERE id = \$1`).
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "primary_niche", "target_audience", "created_at",
			"subscription_plan", "subscription_end_date",
			"content_ideas_used_this_month", "video_repurposing_used_this_month",
			"copyright_alerts_used_this_month", "last_usage_reset",
		}).AddRow("user-2", "c@d.e", "", "", end, nil, nil, nil, nil, nil, nil))

	u, err = repo.GetUserByID(context.Background(), "user-2")
	require.NoError(t, err, "NULL counters must not fail the scan")
	require.NotNil(t, u)
	assert.Equal(t, model.PlanFree, u.Usage.Plan)
	assert.Zero(t, u.Usage.IdeasUsed)
	assert.Zero(t, u.Usage.VideoRepurposesUsed)
	assert.Zero(t, u.Usage.CopyrightAlertsUsed)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	u, err = repo.GetUserByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestResetMonthlyUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUsageRepo(db)

	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE users SET content_ideas_used_this_month = 0, .* WHERE last_usage_reset IS NULL OR last_usage_reset <= \$2`).
		WithArgs(now, now.Add(-30*24*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := repo.ResetMonthlyUsage(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
