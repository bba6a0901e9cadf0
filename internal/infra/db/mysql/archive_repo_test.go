package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

func newMock(t *testing.T) (*ArchiveRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewArchiveRepository(db), mock
}

func TestSaveAnalysis(t *testing.T) {
	r, mock := newMock(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fraud_analyses")).
		WithArgs("AN1", "A1", "-", ts, 0.8, 0.9, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.SaveAnalysis(context.Background(), &fraud.Analysis{
		ID: "AN1", AgentID: "A1", Timestamp: ts, RiskScore: 0.8, Confidence: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveAlert(t *testing.T) {
	r, mock := newMock(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fraud_alerts")).
		WithArgs("AL1", "AN1", "A1", "E1", "ACC001", ts, 0.95, "critical", "new",
			sqlmock.AnyArg(), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.SaveAlert(context.Background(), &fraud.Alert{
		ID: "AL1", AnalysisID: "AN1", AgentID: "A1", EventID: "E1", AccountID: "ACC001",
		Timestamp: ts, RiskScore: 0.95, Severity: fraud.SeverityCritical, Status: fraud.AlertNew,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateAlertStatusMissing(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fraud_alerts")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.UpdateAlertStatus(context.Background(), "nope", fraud.AlertAcknowledged, time.Now())
	if !errors.Is(err, fraud.ErrAlertNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPaginateAnalyses(t *testing.T) {
	r, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"result_json"}).
		AddRow(`{"analysis_id":"AN2","risk_score":0.4}`).
		AddRow(`{"analysis_id":"AN1","risk_score":0.9}`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT result_json FROM fraud_analyses")).
		WithArgs(10, 10).
		WillReturnRows(rows)

	got, err := r.PaginateAnalyses(context.Background(), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "AN2" || got[1].RiskScore != 0.9 {
		t.Errorf("got %+v", got)
	}
}

func TestPaginateDefaults(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT result_json")).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"result_json"}))
	if _, err := r.PaginateAnalyses(context.Background(), 0, 0); err != nil {
		t.Fatal(err)
	}
}
