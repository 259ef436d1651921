// Package replace retires data files into an append-only ledger and
// restores them from it. Replacement is a database operation: the bytes
// on tape are untouched, only live tracking changes.
package replace

import (
	"context"
	"fmt"

	"github.com/primdata/dmt/internal/config"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/log"
)

var (
	// ErrTooManyDuplicates is returned when the ledger already holds the
	// maximum number of entries for one (name, incoming directory) pair.
	ErrTooManyDuplicates = fmt.Errorf("too many replaced duplicates of this file")

	// ErrUnsupportedType is returned by ReplaceAny for inputs that are
	// not data file collections.
	ErrUnsupportedType = fmt.Errorf("unsupported input type for replacement")
)

type Service struct {
	cfg *config.BaseConfig
	st  store.MetadataStore
	log log.LoggerService
}

func NewService(cfg *config.BaseConfig, st store.MetadataStore, logger log.LoggerService) *Service {
	return &Service{
		cfg: cfg,
		st:  st,
		log: logger.Named("replace"),
	}
}

// ReplaceFiles retires each file into the ledger: its descriptive fields
// and first checksum are copied into a ReplacedFile record and the live
// record is deleted. Each file is moved in its own transaction so one
// failure does not undo earlier files.
func (s *Service) ReplaceFiles(ctx context.Context, files []models.DataFile) error {
	for i := range files {
		file := &files[i]
		err := s.st.WithTransaction(ctx, func(tx store.MetadataStore) error {
			return s.replaceOne(ctx, tx, file)
		})
		if err != nil {
			return fmt.Errorf("failed to replace %s: %w", file.Name, err)
		}
		s.log.Debug("replaced %s from %s", file.Name, file.IncomingDirectory)
	}
	return nil
}

func (s *Service) replaceOne(ctx context.Context, tx store.MetadataStore, file *models.DataFile) error {
	checksum, err := tx.FirstChecksumForFile(ctx, file.ID)
	if err != nil {
		return err
	}

	incomingDir, err := s.dedupeIncomingDir(ctx, tx, file.Name, file.IncomingDirectory)
	if err != nil {
		return err
	}

	replaced := &models.ReplacedFile{
		Name:              file.Name,
		IncomingDirectory: incomingDir,
		IncomingName:      file.IncomingName,
		Size:              file.Size,
		Version:           file.Version,
		TapeURL:           file.TapeURL,
		Grid:              file.Grid,
		RipCode:           file.RipCode,
		Frequency:         file.Frequency,
		StartTime:         file.StartTime,
		EndTime:           file.EndTime,
		TimeUnits:         file.TimeUnits,
		Calendar:          file.Calendar,
		ProjectID:         file.ProjectID,
		InstituteID:       file.InstituteID,
		ClimateModelID:    file.ClimateModelID,
		ExperimentID:      file.ExperimentID,
		ActivityIDID:      file.ActivityIDID,
		VariableRequestID: file.VariableRequestID,
		DataRequestID:     file.DataRequestID,
		DataSubmissionID:  file.DataSubmissionID,
	}
	if checksum != nil {
		replaced.ChecksumValue = checksum.ChecksumValue
		replaced.ChecksumType = checksum.ChecksumType
	}

	if err := tx.CreateReplacedFile(ctx, replaced); err != nil {
		return err
	}
	return tx.DeleteDataFile(ctx, file.ID)
}

// dedupeIncomingDir finds a ledger key that is still free: the incoming
// directory as-is, or with an ordinal suffix. The suffix count is capped
// so repeat replacements fail loudly instead of rewriting history.
func (s *Service) dedupeIncomingDir(ctx context.Context, tx store.MetadataStore, name, incomingDir string) (string, error) {
	maxDuplicates := s.cfg.Replace.MaxDuplicates

	for i := 0; i <= maxDuplicates; i++ {
		candidate := incomingDir
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d", incomingDir, i)
		}
		exists, err := tx.ReplacedFileExists(ctx, name, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s in %s", ErrTooManyDuplicates, name, incomingDir)
}

// RestoreFiles is the structural inverse of ReplaceFiles: each ledger
// entry becomes a live data file again, offline with no directory, and
// the ledger entry is deleted. Bytes are not restored to disk; that is a
// separate tape operation.
func (s *Service) RestoreFiles(ctx context.Context, replaced []models.ReplacedFile) error {
	for i := range replaced {
		entry := &replaced[i]
		err := s.st.WithTransaction(ctx, func(tx store.MetadataStore) error {
			return s.restoreOne(ctx, tx, entry)
		})
		if err != nil {
			return fmt.Errorf("failed to restore %s: %w", entry.Name, err)
		}
		s.log.Debug("restored %s", entry.Name)
	}
	return nil
}

func (s *Service) restoreOne(ctx context.Context, tx store.MetadataStore, entry *models.ReplacedFile) error {
	file := &models.DataFile{
		Name:              entry.Name,
		IncomingName:      entry.IncomingName,
		IncomingDirectory: entry.IncomingDirectory,
		Directory:         nil,
		Online:            false,
		Size:              entry.Size,
		Version:           entry.Version,
		TapeURL:           entry.TapeURL,
		Grid:              entry.Grid,
		RipCode:           entry.RipCode,
		Frequency:         entry.Frequency,
		StartTime:         entry.StartTime,
		EndTime:           entry.EndTime,
		TimeUnits:         entry.TimeUnits,
		Calendar:          entry.Calendar,
		ProjectID:         entry.ProjectID,
		InstituteID:       entry.InstituteID,
		ClimateModelID:    entry.ClimateModelID,
		ExperimentID:      entry.ExperimentID,
		ActivityIDID:      entry.ActivityIDID,
		VariableRequestID: entry.VariableRequestID,
		DataRequestID:     entry.DataRequestID,
		DataSubmissionID:  entry.DataSubmissionID,
	}
	if err := tx.CreateDataFile(ctx, file); err != nil {
		return err
	}

	if entry.ChecksumValue != "" {
		err := tx.CreateChecksum(ctx, &models.Checksum{
			DataFileID:    file.ID,
			ChecksumValue: entry.ChecksumValue,
			ChecksumType:  entry.ChecksumType,
		})
		if err != nil {
			return err
		}
	}

	return tx.DeleteReplacedFile(ctx, entry.ID)
}

// ReplaceAny is the untyped entry point used by callers that assemble
// input dynamically. Anything other than a data file collection is
// rejected.
func (s *Service) ReplaceAny(ctx context.Context, input any) error {
	switch files := input.(type) {
	case []models.DataFile:
		return s.ReplaceFiles(ctx, files)
	case []*models.DataFile:
		deref := make([]models.DataFile, 0, len(files))
		for _, f := range files {
			deref = append(deref, *f)
		}
		return s.ReplaceFiles(ctx, deref)
	case *models.DataFile:
		return s.ReplaceFiles(ctx, []models.DataFile{*files})
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, input)
	}
}
