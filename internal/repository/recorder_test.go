package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"creatorhub/internal/model"
	"creatorhub/internal/quota"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recorderNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

const (
	lockQuery   = `SELECT COALESCE\(subscription_plan, 'free'\), .* FROM users WHERE id = \$1 FOR UPDATE`
	insertQuery = `INSERT INTO generated_content`
	updateQuery = `UPDATE users\s+SET content_ideas_used_this_month = \$2`
	sendQuery   = `SELECT pgmq.send`
)

var usageColumnNames = []string{
	"subscription_plan", "subscription_end_date",
	"content_ideas_used_this_month", "video_repurposing_used_this_month",
	"copyright_alerts_used_this_month", "last_usage_reset",
}

func usageRow(plan string, ideas, videos int, lastReset any) *sqlmock.Rows {
	return sqlmock.NewRows(usageColumnNames).AddRow(plan, nil, ideas, videos, 0, lastReset)
}

func paidUsageRow(plan string, ideas, videos int, endDate time.Time, lastReset any) *sqlmock.Rows {
	return sqlmock.NewRows(usageColumnNames).AddRow(plan, endDate, ideas, videos, 0, lastReset)
}

func newTestRecorder(t *testing.T, queue string) (ArtifactRecorder, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ledger := quota.NewLedger(quota.WithClock(func() time.Time { return recorderNow }))
	return NewArtifactRecorder(db, ledger, queue, zerolog.Nop()), mock, db
}

func ideaItems(n int) []*model.GeneratedContent {
	items := make([]*model.GeneratedContent, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, &model.GeneratedContent{
			ContentType: model.ContentTypeIdea,
			Title:       "idea",
			Body:        "body",
			Metadata:    map[string]any{"topic": "fitness"},
		})
	}
	return items
}

func TestRecord_CommitsItemsIncrementAndEvent(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "content_events")
	lastReset := recorderNow.Add(-48 * time.Hour)
	created := recorderNow.Add(time.Second)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs("user-1").WillReturnRows(usageRow("free", 3, 1, lastReset))
	mock.ExpectQuery(insertQuery).
		WithArgs(sqlmock.AnyArg(), "user-1", "idea", "idea", "body", `{"topic":"fitness"}`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectQuery(insertQuery).
		WithArgs(sqlmock.AnyArg(), "user-1", "idea", "idea", "body", `{"topic":"fitness"}`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(updateQuery).
		WithArgs("user-1", 4, 1, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sendQuery).
		WithArgs("content_events", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	items := ideaItems(2)
	err := rec.Record(context.Background(), RecordRequest{UserID: "user-1", Kind: quota.KindIdeaGeneration, TraceID: "ideas-1", Items: items})
	require.NoError(t, err)
	for _, item := range items {
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "user-1", item.UserID)
		assert.True(t, item.CreatedAt.Equal(created))
	}
	assert.NotEqual(t, items[0].ID, items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_InsertFailureRollsBackWithoutIncrement(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "")

	mock.ExpectBegin()
	activeUntil := recorderNow.Add(30 * 24 * time.Hour)
	mock.ExpectQuery(lockQuery).WithArgs("user-1").WillReturnRows(paidUsageRow("pro", 0, 5, activeUntil, recorderNow.Add(-time.Hour)))
	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	item := &model.GeneratedContent{ContentType: model.ContentTypeRepurposedVideo, Title: "t", Body: "transcript"}
	err := rec.Record(context.Background(), RecordRequest{UserID: "user-1", Kind: quota.KindVideoRepurpose, Items: []*model.GeneratedContent{item}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NotErrorIs(t, err, ErrQuotaDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_NullCountersReadAsZero(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "")

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(usageColumnNames).AddRow(nil, nil, nil, nil, nil, recorderNow.Add(-time.Hour)))
	mock.ExpectQuery(insertQuery).WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(recorderNow))
	mock.ExpectExec(updateQuery).
		WithArgs("user-1", 1, 0, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := rec.Record(context.Background(), RecordRequest{UserID: "user-1", Kind: quota.KindIdeaGeneration, Items: ideaItems(1)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_UpdateFailureRollsBack(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "")

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(usageRow("free", 0, 0, recorderNow.Add(-time.Hour)))
	mock.ExpectQuery(insertQuery).WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(recorderNow))
	mock.ExpectExec(updateQuery).WillReturnError(errors.New("serialization failure"))
	mock.ExpectRollback()

	err := rec.Record(context.Background(), RecordRequest{UserID: "user-1", Kind: quota.KindIdeaGeneration, Items: ideaItems(1)})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_EventFailureRollsBack(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "content_events")

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(usageRow("free", 0, 0, recorderNow.Add(-time.Hour)))
	mock.ExpectQuery(insertQuery).WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(recorderNow))
	mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sendQuery).WillReturnError(errors.New("queue does not exist"))
	mock.ExpectRollback()

	err := rec.Record(context.Background(), RecordRequest{UserID: "user-1", Kind: quota.KindIdeaGeneration, Items: ideaItems(1)})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_DeniedUnderLock(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "")

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(usageRow("free", 0, 2, recorderNow.Add(-time.Hour)))
	mock.ExpectRollback()

	err := rec.Record(context.Background(), RecordRequest{
		UserID: "user-1", Kind: quota.KindVideoRepurpose,
		Items: []*model.GeneratedContent{{ContentType: model.ContentTypeRepurposedVideo}},
	})
	require.ErrorIs(t, err, ErrQuotaDenied)
	var denied *QuotaDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, model.PlanFree, denied.Decision.Plan)
	assert.Equal(t, quota.ReasonLimitReached, denied.Decision.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_PersistsLazyReset(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "")

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(usageRow("free", 10, 2, recorderNow.Add(-31*24*time.Hour)))
	mock.ExpectQuery(insertQuery).WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(recorderNow))
	mock.ExpectExec(updateQuery).
		WithArgs("user-1", 1, 0, 0, recorderNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := rec.Record(context.Background(), RecordRequest{UserID: "user-1", Kind: quota.KindIdeaGeneration, Items: ideaItems(1)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_UnknownUser(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "")

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := rec.Record(context.Background(), RecordRequest{UserID: "ghost", Kind: quota.KindIdeaGeneration, Items: ideaItems(1)})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_CommitFailure(t *testing.T) {
	rec, mock, _ := newTestRecorder(t, "")

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(usageRow("free", 0, 0, recorderNow.Add(-time.Hour)))
	mock.ExpectQuery(insertQuery).WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(recorderNow))
	mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := rec.Record(context.Background(), RecordRequest{UserID: "user-1", Kind: quota.KindIdeaGeneration, Items: ideaItems(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing")
	assert.NoError(t, mock.ExpectationsWereMet())
}
