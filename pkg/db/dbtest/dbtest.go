// Package dbtest provides metadata-store fixtures for tests. It creates
// throwaway SQLite databases and populates them with fully linked data
// files so individual tests only state what differs from the baseline.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/primdata/dmt/pkg/cftime"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
)

// NewStore opens a migrated SQLite store in a temporary directory. The
// store is closed when the test finishes.
func NewStore(t *testing.T) store.MetadataStore {
	t.Helper()

	st, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "dmt.db"),
	})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}

	ctx := context.Background()
	if err := st.Connect(ctx); err != nil {
		t.Fatalf("failed to connect test store: %v", err)
	}
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}

	t.Cleanup(func() { _ = st.Close() })
	return st
}

// FileOptions describes one data file to seed. Zero fields take the
// baseline values from DefaultFileOptions.
type FileOptions struct {
	Name              string
	IncomingDirectory string
	Directory         *string
	Online            bool
	Offline           bool
	Size              int64
	Version           string
	Grid              string
	RipCode           string
	Frequency         string

	StartTime *float64
	EndTime   *float64
	TimeUnits string
	Calendar  string

	Project      string
	ActivityID   string
	Institute    string
	ClimateModel string
	Experiment   string

	TableName string
	CmorName  string
	VarName   string
	OutName   string

	Checksum string
}

// DefaultFileOptions is the baseline fixture: a yearly 360-day file
// covering 1950 to 1960.
func DefaultFileOptions() FileOptions {
	start := 0.0
	end := 3600.0
	return FileOptions{
		Name:              "var1_Amon_t_t_r1i1p1_gn_1950-1960.nc",
		IncomingDirectory: "/gws/nopw/j04/primavera4/upload/t",
		Online:            true,
		Size:              1,
		Version:           "v12345678",
		Grid:              "gn",
		RipCode:           "r1i1p1",
		Frequency:         models.FreqAnn,
		StartTime:         &start,
		EndTime:           &end,
		TimeUnits:         "days since 1950-01-01",
		Calendar:          string(cftime.Calendar360Day),
		Project:           "t",
		ActivityID:        "HighResMIP",
		Institute:         "MOHC",
		ClimateModel:      "t",
		Experiment:        "t",
		TableName:         "Amon",
		CmorName:          "var1",
		VarName:           "var1",
	}
}

// MustCreateFile seeds a data file, resolving or creating all of its
// vocabulary rows and its data request, and returns it fully preloaded.
func MustCreateFile(t *testing.T, st store.MetadataStore, opts FileOptions) *models.DataFile {
	t.Helper()
	ctx := context.Background()

	project, err := st.GetOrCreateProject(ctx, opts.Project, opts.Project)
	if err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	institute, err := st.GetOrCreateInstitute(ctx, opts.Institute, opts.Institute)
	if err != nil {
		t.Fatalf("failed to seed institute: %v", err)
	}
	climateModel, err := st.GetOrCreateClimateModel(ctx, opts.ClimateModel, opts.ClimateModel)
	if err != nil {
		t.Fatalf("failed to seed climate model: %v", err)
	}
	experiment, err := st.GetOrCreateExperiment(ctx, opts.Experiment, opts.Experiment)
	if err != nil {
		t.Fatalf("failed to seed experiment: %v", err)
	}
	activity, err := st.GetOrCreateActivityID(ctx, opts.ActivityID, opts.ActivityID)
	if err != nil {
		t.Fatalf("failed to seed activity: %v", err)
	}
	variable, err := st.GetOrCreateVariableRequest(ctx, &models.VariableRequest{
		TableName: opts.TableName,
		CmorName:  opts.CmorName,
		VarName:   opts.VarName,
		OutName:   opts.OutName,
		Frequency: opts.Frequency,
	})
	if err != nil {
		t.Fatalf("failed to seed variable request: %v", err)
	}

	identity := models.DataRequest{
		ProjectID:         project.ID,
		InstituteID:       institute.ID,
		ClimateModelID:    climateModel.ID,
		ExperimentID:      experiment.ID,
		VariableRequestID: variable.ID,
		RipCode:           opts.RipCode,
	}
	dreq, err := st.FindDataRequest(ctx, identity)
	if err != nil {
		t.Fatalf("failed to look up data request: %v", err)
	}
	if dreq == nil {
		dreq = &identity
		if err := st.CreateDataRequest(ctx, dreq); err != nil {
			t.Fatalf("failed to seed data request: %v", err)
		}
	}

	file := &models.DataFile{
		Name:              opts.Name,
		IncomingName:      opts.Name,
		IncomingDirectory: opts.IncomingDirectory,
		Directory:         opts.Directory,
		Online:            opts.Online && !opts.Offline,
		Size:              opts.Size,
		Version:           opts.Version,
		Grid:              opts.Grid,
		RipCode:           opts.RipCode,
		Frequency:         opts.Frequency,
		StartTime:         opts.StartTime,
		EndTime:           opts.EndTime,
		TimeUnits:         opts.TimeUnits,
		Calendar:          opts.Calendar,
		ProjectID:         project.ID,
		InstituteID:       institute.ID,
		ClimateModelID:    climateModel.ID,
		ExperimentID:      experiment.ID,
		ActivityIDID:      activity.ID,
		VariableRequestID: variable.ID,
		DataRequestID:     dreq.ID,
	}
	if err := st.CreateDataFile(ctx, file); err != nil {
		t.Fatalf("failed to seed data file %s: %v", opts.Name, err)
	}

	if opts.Checksum != "" {
		err := st.CreateChecksum(ctx, &models.Checksum{
			DataFileID:    file.ID,
			ChecksumValue: opts.Checksum,
			ChecksumType:  models.ChecksumAdler32,
		})
		if err != nil {
			t.Fatalf("failed to seed checksum: %v", err)
		}
	}

	loaded, err := st.GetDataFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("failed to reload seeded file: %v", err)
	}
	return loaded
}
