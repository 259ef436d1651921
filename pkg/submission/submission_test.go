package submission

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/primdata/dmt/internal/config"
	"github.com/primdata/dmt/pkg/db/dbtest"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/log"
)

const testDocument = `submission:
  incoming_directory: /gws/nopw/j04/primavera4/upload/t
  user: fred
files:
  - name: var1_Amon_t_t_r1i1p1_gn_1950-1960.nc
    directory: /gws/nopw/j04/primavera5/stream1/incoming
    size: 1024
    online: true
    version: v12345678
    grid: gn
    rip_code: r1i1p1
    frequency: ann
    project: t
    activity_id: HighResMIP
    institute: MOHC
    climate_model: t
    experiment: t
    table: Amon
    cmor_name: var1
    var_name: var1
    start_date: "195001"
    end_date: "196012"
    time_units: days since 1950-01-01
    calendar: 360_day
    checksum: "12345678"
    checksum_type: ADLER32
  - name: orog_fx_t_t_r1i1p1_gn.nc
    size: 64
    online: false
    version: v12345678
    grid: gn
    rip_code: r1i1p1
    frequency: fx
    project: t
    activity_id: HighResMIP
    institute: MOHC
    climate_model: t
    experiment: t
    table: fx
    cmor_name: orog
    var_name: orog
    time_units: days since 1950-01-01
    calendar: 360_day
`

func newTestService(t *testing.T) (*Service, store.MetadataStore) {
	t.Helper()
	st := dbtest.NewStore(t)
	logger := log.NewLoggerService("test", config.LogConfig{Level: "ERROR", NoTerminal: true})
	return NewService(st, logger), st
}

func writeDocument(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "submission.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestFile(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	sub, err := svc.IngestFile(ctx, writeDocument(t, testDocument))
	if err != nil {
		t.Fatalf("IngestFile unexpected error: %v", err)
	}
	if sub.Status != models.SubmissionValidated {
		t.Errorf("submission status = %q, want VALIDATED", sub.Status)
	}
	if sub.User != "fred" {
		t.Errorf("submission user = %q, want fred", sub.User)
	}

	timed, err := st.GetDataFileByName(ctx, "var1_Amon_t_t_r1i1p1_gn_1950-1960.nc")
	if err != nil {
		t.Fatalf("timed file not created: %v", err)
	}
	if !timed.Online || timed.Directory == nil {
		t.Errorf("timed file should be online with a directory")
	}
	if timed.StartTime == nil || *timed.StartTime != 0 {
		t.Errorf("start time = %v, want 0 (1950-01-01)", timed.StartTime)
	}
	if timed.EndTime == nil || *timed.EndTime != 3959 {
		t.Errorf("end time = %v, want 3959 (1960-12-30 in a 360-day year)", timed.EndTime)
	}
	if timed.DataSubmissionID == nil || *timed.DataSubmissionID != sub.ID {
		t.Errorf("timed file not linked to the submission")
	}
	checksum, err := st.FirstChecksumForFile(ctx, timed.ID)
	if err != nil {
		t.Fatal(err)
	}
	if checksum == nil || checksum.ChecksumValue != "12345678" {
		t.Errorf("checksum = %+v, want the submitted value", checksum)
	}

	fixed, err := st.GetDataFileByName(ctx, "orog_fx_t_t_r1i1p1_gn.nc")
	if err != nil {
		t.Fatalf("fx file not created: %v", err)
	}
	if fixed.Online || fixed.Directory != nil {
		t.Errorf("fx file should be offline with no directory")
	}
	if fixed.StartTime != nil || fixed.EndTime != nil {
		t.Errorf("fx file should have no time extent")
	}
	if fixed.DataRequestID == timed.DataRequestID {
		t.Errorf("different variables must land in different data requests")
	}
}

func TestIngestRollsBackOnBadRecord(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	doc := &Document{
		Submission: Header{IncomingDirectory: "/upload", User: "fred"},
		Files: []FileRecord{
			{
				Name: "ok_Amon_t_t_r1i1p1_gn_1950-1960.nc", Size: 1, Online: false,
				Project: "t", ActivityID: "HighResMIP", Institute: "MOHC",
				ClimateModel: "t", Experiment: "t",
				Table: "Amon", CmorName: "ok", VarName: "ok",
				RipCode: "r1i1p1", Grid: "gn", Frequency: "ann",
				StartDate: "195001", EndDate: "196012",
				TimeUnits: "days since 1950-01-01", Calendar: "360_day",
			},
			{
				Name: "bad_Amon_t_t_r1i1p1_gn_1950-1960.nc", Size: 1, Online: false,
				Project: "t", ActivityID: "HighResMIP", Institute: "MOHC",
				ClimateModel: "t", Experiment: "t",
				Table: "Amon", CmorName: "bad", VarName: "bad",
				RipCode: "r1i1p1", Grid: "gn", Frequency: "ann",
				StartDate: "1950", EndDate: "196012",
				TimeUnits: "days since 1950-01-01", Calendar: "360_day",
			},
		},
	}

	if _, err := svc.Ingest(ctx, doc); err == nil {
		t.Fatal("Ingest accepted a record with a malformed date")
	}

	// The whole document is rejected, including the valid record.
	if _, err := st.GetDataFileByName(ctx, "ok_Amon_t_t_r1i1p1_gn_1950-1960.nc"); err == nil {
		t.Errorf("valid record should have been rolled back with the document")
	}
}

func TestIngestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, &Document{
		Submission: Header{IncomingDirectory: "/upload"},
	}); err == nil {
		t.Errorf("Ingest accepted a document with no files")
	}

	if _, err := svc.Ingest(ctx, &Document{
		Files: []FileRecord{{Name: "x.nc"}},
	}); err == nil {
		t.Errorf("Ingest accepted a document with no incoming directory")
	}

	if _, err := svc.IngestFile(ctx, "/nonexistent/submission.yml"); err == nil {
		t.Errorf("IngestFile accepted a missing path")
	}
}
