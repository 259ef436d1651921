package replace

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/primdata/dmt/internal/config"
	"github.com/primdata/dmt/pkg/db/dbtest"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/log"
)

func newTestService(t *testing.T) (*Service, store.MetadataStore) {
	t.Helper()
	cfg := config.GetDefault()
	cfg.Log.NoTerminal = true

	st := dbtest.NewStore(t)
	logger := log.NewLoggerService("test", cfg.Log)
	return NewService(&cfg, st, logger), st
}

func seedFile(t *testing.T, st store.MetadataStore) *models.DataFile {
	t.Helper()
	opts := dbtest.DefaultFileOptions()
	opts.Checksum = "12345678"
	return dbtest.MustCreateFile(t, st, opts)
}

func TestReplaceFiles(t *testing.T) {
	svc, st := newTestService(t)
	file := seedFile(t, st)
	ctx := context.Background()

	if err := svc.ReplaceFiles(ctx, []models.DataFile{*file}); err != nil {
		t.Fatalf("ReplaceFiles unexpected error: %v", err)
	}

	if _, err := st.GetDataFile(ctx, file.ID); err == nil {
		t.Errorf("live record should be deleted after replacement")
	}

	entries, err := st.ListReplacedFilesByNames(ctx, []string{file.Name})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("ledger holds %d entries, want 1", len(entries))
	}

	entry := entries[0]
	if entry.IncomingDirectory != file.IncomingDirectory {
		t.Errorf("incoming directory = %q, want %q", entry.IncomingDirectory, file.IncomingDirectory)
	}
	if entry.Size != file.Size || entry.Version != file.Version || entry.RipCode != file.RipCode {
		t.Errorf("descriptive fields not copied: %+v", entry)
	}
	if entry.ChecksumValue != "12345678" || entry.ChecksumType != models.ChecksumAdler32 {
		t.Errorf("checksum not captured: %q %q", entry.ChecksumValue, entry.ChecksumType)
	}
}

func TestReplaceFilesWithoutChecksum(t *testing.T) {
	svc, st := newTestService(t)
	file := dbtest.MustCreateFile(t, st, dbtest.DefaultFileOptions())
	ctx := context.Background()

	if err := svc.ReplaceFiles(ctx, []models.DataFile{*file}); err != nil {
		t.Fatalf("ReplaceFiles unexpected error: %v", err)
	}

	entries, err := st.ListReplacedFilesByNames(ctx, []string{file.Name})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ChecksumValue != "" {
		t.Errorf("a file without a checksum should produce an entry with none")
	}
}

func TestReplaceDuplicateSuffixes(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	// The same (name, incoming directory) can be retired repeatedly up
	// to the configured cap; one more attempt must fail loudly.
	for i := 0; i <= svc.cfg.Replace.MaxDuplicates; i++ {
		file := seedFile(t, st)
		if err := svc.ReplaceFiles(ctx, []models.DataFile{*file}); err != nil {
			t.Fatalf("replacement %d unexpected error: %v", i, err)
		}
	}

	opts := dbtest.DefaultFileOptions()
	base := opts.IncomingDirectory
	for i := 1; i <= svc.cfg.Replace.MaxDuplicates; i++ {
		exists, err := st.ReplacedFileExists(ctx, opts.Name, fmt.Sprintf("%s_%d", base, i))
		if err != nil {
			t.Fatal(err)
		}
		if !exists {
			t.Errorf("ledger entry with suffix _%d missing", i)
		}
	}

	file := seedFile(t, st)
	err := svc.ReplaceFiles(ctx, []models.DataFile{*file})
	if !errors.Is(err, ErrTooManyDuplicates) {
		t.Errorf("ReplaceFiles error = %v, want ErrTooManyDuplicates", err)
	}
}

func TestRestoreFiles(t *testing.T) {
	svc, st := newTestService(t)
	file := seedFile(t, st)
	ctx := context.Background()

	if err := svc.ReplaceFiles(ctx, []models.DataFile{*file}); err != nil {
		t.Fatal(err)
	}
	entries, err := st.ListReplacedFilesByNames(ctx, []string{file.Name})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.RestoreFiles(ctx, entries); err != nil {
		t.Fatalf("RestoreFiles unexpected error: %v", err)
	}

	remaining, err := st.ListReplacedFilesByNames(ctx, []string{file.Name})
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("ledger still holds %d entries after restore", len(remaining))
	}

	restored, err := st.GetDataFileByName(ctx, file.Name)
	if err != nil {
		t.Fatalf("restored file not found: %v", err)
	}
	if restored.Online {
		t.Errorf("restored file must be offline until retrieved from tape")
	}
	if restored.Directory != nil {
		t.Errorf("restored file must have no directory, got %q", *restored.Directory)
	}
	if restored.DataRequestID != file.DataRequestID {
		t.Errorf("restored file lost its data request")
	}

	checksum, err := st.FirstChecksumForFile(ctx, restored.ID)
	if err != nil {
		t.Fatal(err)
	}
	if checksum == nil || checksum.ChecksumValue != "12345678" {
		t.Errorf("restored file checksum = %+v, want 12345678", checksum)
	}
}

func TestReplaceAny(t *testing.T) {
	svc, st := newTestService(t)
	file := seedFile(t, st)
	ctx := context.Background()

	if err := svc.ReplaceAny(ctx, "not a file collection"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("ReplaceAny error = %v, want ErrUnsupportedType", err)
	}
	if err := svc.ReplaceAny(ctx, 42); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("ReplaceAny error = %v, want ErrUnsupportedType", err)
	}

	if err := svc.ReplaceAny(ctx, []models.DataFile{*file}); err != nil {
		t.Fatalf("ReplaceAny unexpected error: %v", err)
	}
	entries, err := st.ListReplacedFilesByNames(ctx, []string{file.Name})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("ReplaceAny should behave exactly like ReplaceFiles")
	}
}
