package attrupdate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/primdata/dmt/internal/config"
	"github.com/primdata/dmt/pkg/db/dbtest"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/log"
	"github.com/primdata/dmt/pkg/relocate"
)

// fakeRunner records the external commands instead of running them, so
// tests can pin the exact nco invocations without nco installed.
type fakeRunner struct {
	commands []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.commands = append(r.commands, name+" "+strings.Join(args, " "))
	return nil
}

type fixture struct {
	updater *Updater
	st      store.MetadataStore
	runner  *fakeRunner
	base    string
	dataDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tmp := t.TempDir()

	cfg := config.GetDefault()
	cfg.BaseOutputDir = filepath.Join(tmp, "base")
	cfg.Log.NoTerminal = true

	st := dbtest.NewStore(t)
	logger := log.NewLoggerService("test", cfg.Log)
	engine := relocate.NewEngine(&cfg, st, logger)
	runner := &fakeRunner{}

	return &fixture{
		updater: NewUpdater(&cfg, st, engine, runner, logger),
		st:      st,
		runner:  runner,
		base:    cfg.BaseOutputDir,
		dataDir: filepath.Join(tmp, "data"),
	}
}

// seedOnDisk creates the database record and the physical file behind it.
func (f *fixture) seedOnDisk(t *testing.T, opts dbtest.FileOptions) *models.DataFile {
	t.Helper()
	opts.Directory = &f.dataDir
	file := dbtest.MustCreateFile(t, f.st, opts)

	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.dataDir, file.Name), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestSourceIDUpdate(t *testing.T) {
	f := newFixture(t)
	opts := dbtest.DefaultFileOptions()
	opts.Checksum = "1234"
	file := f.seedOnDisk(t, opts)
	oldDataRequestID := file.DataRequestID
	ctx := context.Background()

	op, err := f.updater.Update(ctx, file, SourceIDUpdate{NewValue: "better-model"}, false)
	if err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if len(op.Steps) != 6 || !op.Completed(StepUpdateDatabase) {
		t.Errorf("operation completed %d steps, want all 6: %+v", len(op.Steps), op.Steps)
	}

	wantCommands := []string{
		"ncatted -h -a source_id,global,o,c,better-model " +
			filepath.Join(f.dataDir, "var1_Amon_t_t_r1i1p1_gn_1950-1960.nc"),
		"ncatted -h -a further_info_url,global,o,c," +
			"https://furtherinfo.es-doc.org/t.MOHC.better-model.t.none.r1i1p1 " +
			filepath.Join(f.dataDir, "var1_Amon_t_t_r1i1p1_gn_1950-1960.nc"),
	}
	if len(f.runner.commands) != len(wantCommands) {
		t.Fatalf("ran %d commands, want %d: %v", len(f.runner.commands), len(wantCommands), f.runner.commands)
	}
	for i, want := range wantCommands {
		if f.runner.commands[i] != want {
			t.Errorf("command %d = %q, want %q", i, f.runner.commands[i], want)
		}
	}

	wantName := "var1_Amon_better-model_t_r1i1p1_gn_1950-1960.nc"
	wantDir := filepath.Join(f.base,
		"t/HighResMIP/MOHC/better-model/t/r1i1p1/Amon/var1/gn/v12345678")
	if _, err := os.Stat(filepath.Join(wantDir, wantName)); err != nil {
		t.Errorf("file missing from new canonical location: %v", err)
	}
	if _, err := os.Stat(f.dataDir); !os.IsNotExist(err) {
		t.Errorf("emptied old directory should have been removed")
	}

	reloaded, err := f.st.GetDataFile(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Name != wantName {
		t.Errorf("recorded name = %q, want %q", reloaded.Name, wantName)
	}
	if reloaded.Directory == nil || *reloaded.Directory != wantDir {
		t.Errorf("recorded directory = %v, want %q", reloaded.Directory, wantDir)
	}
	if reloaded.ClimateModel.ShortName != "better-model" {
		t.Errorf("climate model = %q, want better-model", reloaded.ClimateModel.ShortName)
	}
	if reloaded.Size != 3 {
		t.Errorf("size = %d, want the rewritten file's 3 bytes", reloaded.Size)
	}
	if reloaded.TapeSize == nil || *reloaded.TapeSize != 1 {
		t.Errorf("tape size should hold the pre-update size, got %v", reloaded.TapeSize)
	}

	checksum, err := f.st.FirstChecksumForFile(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if checksum == nil || checksum.ChecksumValue != "38600999" {
		t.Errorf("live checksum = %+v, want the recomputed value", checksum)
	}
	tapeChecksums, err := f.st.TapeChecksumsForFile(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tapeChecksums) != 1 || tapeChecksums[0].ChecksumValue != "1234" {
		t.Errorf("tape checksums = %+v, want a snapshot of the prior value", tapeChecksums)
	}

	// The old data request was emptied and nothing references it.
	if _, err := f.st.GetDataRequest(ctx, oldDataRequestID); err == nil {
		t.Errorf("emptied data request should have been deleted")
	}
	newDreq, err := f.st.GetDataRequest(ctx, reloaded.DataRequestID)
	if err != nil {
		t.Fatal(err)
	}
	if newDreq.ClimateModel.ShortName != "better-model" {
		t.Errorf("new data request climate model = %q, want better-model",
			newDreq.ClimateModel.ShortName)
	}
}

func TestVariantLabelUpdate(t *testing.T) {
	f := newFixture(t)
	file := f.seedOnDisk(t, dbtest.DefaultFileOptions())
	ctx := context.Background()

	op, err := f.updater.Update(ctx, file, VariantLabelUpdate{NewValue: "r1i1p1f2"}, false)
	if err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if !op.Completed(StepUpdateDatabase) {
		t.Errorf("operation did not complete: %+v", op.Steps)
	}

	path := filepath.Join(f.dataDir, "var1_Amon_t_t_r1i1p1_gn_1950-1960.nc")
	wantCommands := []string{
		"ncatted -h -a variant_label,global,o,c,r1i1p1f2 " + path,
		"ncatted -h -a realization_index,global,o,s,1 " + path,
		"ncatted -h -a initialization_index,global,o,s,1 " + path,
		"ncatted -h -a physics_index,global,o,s,1 " + path,
		"ncatted -h -a forcing_index,global,o,s,2 " + path,
		"ncatted -h -a further_info_url,global,o,c," +
			"https://furtherinfo.es-doc.org/t.MOHC.t.t.none.r1i1p1f2 " + path,
	}
	if len(f.runner.commands) != len(wantCommands) {
		t.Fatalf("ran %d commands, want %d: %v", len(f.runner.commands), len(wantCommands), f.runner.commands)
	}
	for i, want := range wantCommands {
		if f.runner.commands[i] != want {
			t.Errorf("command %d = %q, want %q", i, f.runner.commands[i], want)
		}
	}

	reloaded, err := f.st.GetDataFile(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.RipCode != "r1i1p1f2" {
		t.Errorf("rip code = %q, want r1i1p1f2", reloaded.RipCode)
	}
	if want := "var1_Amon_t_t_r1i1p1f2_gn_1950-1960.nc"; reloaded.Name != want {
		t.Errorf("name = %q, want %q", reloaded.Name, want)
	}
}

func TestVariantLabelValidation(t *testing.T) {
	f := newFixture(t)
	file := f.seedOnDisk(t, dbtest.DefaultFileOptions())

	op, err := f.updater.Update(context.Background(), file,
		VariantLabelUpdate{NewValue: "not-a-label"}, false)
	if !errors.Is(err, ErrInvalidVariantLabel) {
		t.Errorf("Update error = %v, want ErrInvalidVariantLabel", err)
	}
	if len(op.Steps) != 0 || len(f.runner.commands) != 0 {
		t.Errorf("validation failure must happen before any step runs")
	}
}

func TestVarNameToOutNameUpdate(t *testing.T) {
	f := newFixture(t)
	opts := dbtest.DefaultFileOptions()
	opts.OutName = "var"
	file := f.seedOnDisk(t, opts)
	ctx := context.Background()

	op, err := f.updater.Update(ctx, file, VarNameToOutNameUpdate{}, false)
	if err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if !op.Completed(StepUpdateDatabase) {
		t.Errorf("operation did not complete: %+v", op.Steps)
	}

	path := filepath.Join(f.dataDir, "var1_Amon_t_t_r1i1p1_gn_1950-1960.nc")
	wantCommands := []string{
		"ncrename -h -v var1,var " + path,
		"ncatted -h -a variable_id,global,o,c,var " + path,
	}
	for i, want := range wantCommands {
		if i >= len(f.runner.commands) || f.runner.commands[i] != want {
			t.Errorf("command %d = %v, want %q", i, f.runner.commands, want)
		}
	}

	// Only the filename changes; the out name does not move the file's
	// canonical directory.
	reloaded, err := f.st.GetDataFile(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if want := "var_Amon_t_t_r1i1p1_gn_1950-1960.nc"; reloaded.Name != want {
		t.Errorf("name = %q, want %q", reloaded.Name, want)
	}
	if reloaded.Directory == nil || *reloaded.Directory != f.dataDir {
		t.Errorf("directory = %v, want unchanged %q", reloaded.Directory, f.dataDir)
	}
	if _, err := os.Stat(filepath.Join(f.dataDir, reloaded.Name)); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestVarNameToOutNameRequiresOutName(t *testing.T) {
	f := newFixture(t)
	file := f.seedOnDisk(t, dbtest.DefaultFileOptions())

	if _, err := f.updater.Update(context.Background(), file, VarNameToOutNameUpdate{}, false); err == nil {
		t.Errorf("Update accepted a variable request without an out name")
	}
}

func TestMipEraUpdate(t *testing.T) {
	f := newFixture(t)
	file := f.seedOnDisk(t, dbtest.DefaultFileOptions())
	ctx := context.Background()

	op, err := f.updater.Update(ctx, file, MipEraUpdate{NewValue: "CMIP6"}, false)
	if err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if !op.Completed(StepUpdateDatabase) {
		t.Errorf("operation did not complete: %+v", op.Steps)
	}

	path := filepath.Join(f.dataDir, "var1_Amon_t_t_r1i1p1_gn_1950-1960.nc")
	if want := "ncatted -h -a mip_era,global,o,c,CMIP6 " + path; f.runner.commands[0] != want {
		t.Errorf("command 0 = %q, want %q", f.runner.commands[0], want)
	}

	reloaded, err := f.st.GetDataFile(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Project.ShortName != "CMIP6" {
		t.Errorf("project = %q, want CMIP6", reloaded.Project.ShortName)
	}
	wantDir := filepath.Join(f.base,
		"CMIP6/HighResMIP/MOHC/t/t/r1i1p1/Amon/var1/gn/v12345678")
	if reloaded.Directory == nil || *reloaded.Directory != wantDir {
		t.Errorf("directory = %v, want %q", reloaded.Directory, wantDir)
	}
}

func TestUpdateFileOnly(t *testing.T) {
	f := newFixture(t)
	opts := dbtest.DefaultFileOptions()
	opts.Checksum = "1234"
	file := f.seedOnDisk(t, opts)
	ctx := context.Background()

	op, err := f.updater.Update(ctx, file, SourceIDUpdate{NewValue: "better-model"}, true)
	if err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}
	if len(op.Steps) != 4 || op.Completed(StepUpdateChecksum) || op.Completed(StepUpdateDatabase) {
		t.Errorf("file-only update must stop after relocation: %+v", op.Steps)
	}

	// Physical side done.
	wantDir := filepath.Join(f.base,
		"t/HighResMIP/MOHC/better-model/t/r1i1p1/Amon/var1/gn/v12345678")
	if _, err := os.Stat(filepath.Join(wantDir, "var1_Amon_better-model_t_r1i1p1_gn_1950-1960.nc")); err != nil {
		t.Errorf("file missing from new canonical location: %v", err)
	}

	// Database side untouched.
	reloaded, err := f.st.GetDataFile(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Name != "var1_Amon_t_t_r1i1p1_gn_1950-1960.nc" {
		t.Errorf("file-only update changed the recorded name to %q", reloaded.Name)
	}
	if reloaded.ClimateModel.ShortName != "t" {
		t.Errorf("file-only update changed the recorded climate model")
	}
	checksum, err := f.st.FirstChecksumForFile(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if checksum == nil || checksum.ChecksumValue != "1234" {
		t.Errorf("file-only update touched the checksum: %+v", checksum)
	}
}

func TestUpdatePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opts := dbtest.DefaultFileOptions()
	opts.Online = false
	offline := dbtest.MustCreateFile(t, f.st, opts)

	op, err := f.updater.Update(ctx, offline, SourceIDUpdate{NewValue: "m"}, false)
	if !errors.Is(err, relocate.ErrFileOffline) {
		t.Errorf("offline error = %v, want ErrFileOffline", err)
	}
	if len(op.Steps) != 0 {
		t.Errorf("no step may complete for an offline file")
	}

	missingDir := filepath.Join(t.TempDir(), "missing")
	opts = dbtest.DefaultFileOptions()
	opts.Name = "var1_Amon_t_t_r1i1p1_gn_1960-1970.nc"
	opts.Directory = &missingDir
	missing := dbtest.MustCreateFile(t, f.st, opts)

	if _, err := f.updater.Update(ctx, missing, SourceIDUpdate{NewValue: "m"}, false); !errors.Is(err, relocate.ErrFileNotOnDisk) {
		t.Errorf("missing file error = %v, want ErrFileNotOnDisk", err)
	}
}

func TestEmptiedDataRequestKeptWithSentinel(t *testing.T) {
	f := newFixture(t)
	file := f.seedOnDisk(t, dbtest.DefaultFileOptions())
	oldDataRequestID := file.DataRequestID
	ctx := context.Background()

	// A retrieval request pins the old data request, so it must survive
	// the update under the sentinel label instead of being deleted.
	dreq, err := f.st.GetDataRequest(ctx, oldDataRequestID)
	if err != nil {
		t.Fatal(err)
	}
	err = f.st.CreateRetrievalRequest(ctx, &models.RetrievalRequest{
		Requester:    "fred",
		StartYear:    1950,
		EndYear:      1960,
		DataRequests: []models.DataRequest{*dreq},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.updater.Update(ctx, file, SourceIDUpdate{NewValue: "better-model"}, false); err != nil {
		t.Fatalf("Update unexpected error: %v", err)
	}

	kept, err := f.st.GetDataRequest(ctx, oldDataRequestID)
	if err != nil {
		t.Fatalf("referenced data request must not be deleted: %v", err)
	}
	if kept.RipCode != models.RipCodeSentinel {
		t.Errorf("kept data request rip code = %q, want sentinel %q",
			kept.RipCode, models.RipCodeSentinel)
	}
}
