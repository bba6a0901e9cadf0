package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

func TestArchiveRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	r := NewArchiveRepository(db)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fraud_alerts SET status=$1")).
		WithArgs("acknowledged", sqlmock.AnyArg(), "AL1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := r.UpdateAlertStatus(context.Background(), "AL1", fraud.AlertAcknowledged, at); err != nil {
		t.Fatal(err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(5, 0).
		WillReturnRows(sqlmock.NewRows([]string{"result_json"}).
			AddRow([]byte(`{"analysis_id":"AN1","fallback":true}`)))
	got, err := r.PaginateAnalyses(context.Background(), 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Fallback {
		t.Errorf("got %+v", got)
	}

	mock.ExpectPing()
	if err := r.Ping(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestPaginateBadJSON(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectQuery("SELECT result_json").
		WillReturnRows(sqlmock.NewRows([]string{"result_json"}).AddRow([]byte("{")))
	if _, err := NewArchiveRepository(db).PaginateAnalyses(context.Background(), 1, 1); err == nil {
		t.Error("expected decode error")
	}
}
