package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/models"
)

func pushRows(records ...models.PushRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "channel", "mode", "signature", "headline_count", "status", "error_detail", "pushed_at",
	})
	for _, r := range records {
		rows.AddRow(r.ID.String(), r.Channel, r.Mode, r.Signature,
			r.HeadlineCount, r.Status, r.Error, r.PushedAt)
	}
	return rows
}

func TestRepository_RecordPush(t *testing.T) {
	repo, mock := newTestRepository(t)
	ctx := context.Background()

	pushedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		record    *models.PushRecord
		setupMock func()
		wantErr   bool
	}{
		{
			name: "stores a sent push",
			record: &models.PushRecord{
				Channel:       "default",
				Mode:          "incremental",
				Signature:     "a1b2c3",
				HeadlineCount: 12,
				Status:        models.PushStatusSent,
				PushedAt:      pushedAt,
			},
			setupMock: func() {
				mock.ExpectQuery("INSERT INTO push_records").
					WithArgs(sqlmock.AnyArg(), "default", "incremental", "a1b2c3",
						12, models.PushStatusSent, "", pushedAt).
					WillReturnRows(pushRows(models.PushRecord{
						ID: uuid.New(), Channel: "default", Mode: "incremental", Signature: "a1b2c3",
						HeadlineCount: 12, Status: models.PushStatusSent, PushedAt: pushedAt,
					}))
			},
		},
		{
			name: "stores a failed push with detail",
			record: &models.PushRecord{
				Channel: "default",
				Mode:    "daily",
				Status:  models.PushStatusFailed,
				Error:   "webhook returned 502",
			},
			setupMock: func() {
				mock.ExpectQuery("INSERT INTO push_records").
					WithArgs(sqlmock.AnyArg(), "default", "daily", "",
						0, models.PushStatusFailed, "webhook returned 502", sqlmock.AnyArg()).
					WillReturnRows(pushRows(models.PushRecord{
						ID: uuid.New(), Channel: "default", Mode: "daily",
						Status: models.PushStatusFailed, Error: "webhook returned 502", PushedAt: pushedAt,
					}))
			},
		},
		{
			name:   "returns error on database failure",
			record: &models.PushRecord{Channel: "default", Mode: "daily", Status: models.PushStatusSent},
			setupMock: func() {
				mock.ExpectQuery("INSERT INTO push_records").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()

			stored, callErr := repo.RecordPush(ctx, tc.record)
			if (callErr != nil) != tc.wantErr {
				t.Errorf("RecordPush() error = %v, wantErr %v", callErr, tc.wantErr)
			}
			if !tc.wantErr {
				if stored.ID == uuid.Nil {
					t.Error("RecordPush() returned nil id")
				}
				if stored.Status != tc.record.Status {
					t.Errorf("RecordPush() status = %q, want %q", stored.Status, tc.record.Status)
				}
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestRepository_LastSuccessfulPushAt(t *testing.T) {
	repo, mock := newTestRepository(t)
	ctx := context.Background()

	pushedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		setupMock func()
		wantTime  time.Time
		wantErr   error
	}{
		{
			name: "returns the most recent sent push time",
			setupMock: func() {
				mock.ExpectQuery("SELECT pushed_at").
					WithArgs(models.PushStatusSent).
					WillReturnRows(sqlmock.NewRows([]string{"pushed_at"}).AddRow(pushedAt))
			},
			wantTime: pushedAt,
		},
		{
			name: "maps no sent pushes to ErrNotFound",
			setupMock: func() {
				mock.ExpectQuery("SELECT pushed_at").
					WithArgs(models.PushStatusSent).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: models.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()

			got, callErr := repo.LastSuccessfulPushAt(ctx)
			if tc.wantErr != nil {
				if !errors.Is(callErr, tc.wantErr) {
					t.Errorf("LastSuccessfulPushAt() error = %v, want %v", callErr, tc.wantErr)
				}
			} else {
				if callErr != nil {
					t.Fatalf("LastSuccessfulPushAt() error = %v", callErr)
				}
				if !got.Equal(tc.wantTime) {
					t.Errorf("LastSuccessfulPushAt() = %v, want %v", got, tc.wantTime)
				}
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestRepository_ListPushes(t *testing.T) {
	repo, mock := newTestRepository(t)
	ctx := context.Background()

	t.Run("applies default limit", func(t *testing.T) {
		mock.ExpectQuery("FROM push_records").
			WithArgs(20).
			WillReturnRows(pushRows(
				models.PushRecord{ID: uuid.New(), Channel: "default", Mode: "daily",
					Status: models.PushStatusSent, PushedAt: time.Now().UTC()},
			))

		records, callErr := repo.ListPushes(ctx, 0)
		if callErr != nil {
			t.Fatalf("ListPushes() error = %v", callErr)
		}
		if len(records) != 1 {
			t.Errorf("ListPushes() returned %d records, want 1", len(records))
		}

		if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
			t.Errorf("unfulfilled expectations: %v", expectErr)
		}
	})
}
