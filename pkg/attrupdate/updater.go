// Package attrupdate performs in-place metadata corrections on archived
// files: rewrite the embedded attributes, rename and relocate the file
// to its new canonical place, refresh its checksum and bring the
// database in line. The six steps run strictly in order; an error aborts
// the sequence without undoing completed steps, leaving the step log to
// show how far the operation got.
package attrupdate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/primdata/dmt/internal/config"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/drs"
	"github.com/primdata/dmt/pkg/log"
	"github.com/primdata/dmt/pkg/relocate"
)

// Step names the stages of an attribute update, in execution order.
type Step string

const (
	StepCheckAvailable    Step = "check_available"
	StepRewriteAttributes Step = "rewrite_attributes"
	StepRenameFile        Step = "rename_file"
	StepRelocateDirectory Step = "relocate_directory"
	StepUpdateChecksum    Step = "update_checksum"
	StepUpdateDatabase    Step = "update_database"
)

// StepRecord marks one completed step.
type StepRecord struct {
	Step        Step
	CompletedAt time.Time
}

// Operation is the audit record of one update run. After a failure the
// step log shows the last completed step, which is enough to decide what
// manual reconciliation is needed.
type Operation struct {
	ID       uuid.UUID
	Strategy string
	FileOnly bool
	Steps    []StepRecord
}

func (op *Operation) complete(step Step) {
	op.Steps = append(op.Steps, StepRecord{Step: step, CompletedAt: time.Now().UTC()})
}

// Completed reports whether the given step finished.
func (op *Operation) Completed(step Step) bool {
	for _, rec := range op.Steps {
		if rec.Step == step {
			return true
		}
	}
	return false
}

type Updater struct {
	cfg   *config.BaseConfig
	st    store.MetadataStore
	moves *relocate.Engine
	run   CommandRunner
	log   log.LoggerService
}

func NewUpdater(cfg *config.BaseConfig, st store.MetadataStore, moves *relocate.Engine, runner CommandRunner, logger log.LoggerService) *Updater {
	return &Updater{
		cfg:   cfg,
		st:    st,
		moves: moves,
		run:   runner,
		log:   logger.Named("attrupdate"),
	}
}

// Update runs the full step sequence for one file. With fileOnly set,
// only the physical side is touched: attributes, name and location on
// disk change while every database record is left alone.
func (u *Updater) Update(ctx context.Context, file *models.DataFile, strategy Strategy, fileOnly bool) (*Operation, error) {
	op := &Operation{
		ID:       uuid.New(),
		Strategy: strategy.Name(),
		FileOnly: fileOnly,
	}
	u.log.Info("[%s] %s update of %s starting", op.ID, op.Strategy, file.Name)

	if err := strategy.Validate(file); err != nil {
		return op, err
	}

	// Step 1: the file must be online and really on disk before any
	// mutation is attempted.
	if !file.Online {
		return op, fmt.Errorf("%w: %s", relocate.ErrFileOffline, file.Name)
	}
	if file.Directory == nil {
		return op, fmt.Errorf("%w: %s is online but has no directory", relocate.ErrFileNotOnDisk, file.Name)
	}
	oldDir := *file.Directory
	currentPath := filepath.Join(oldDir, file.Name)
	if _, err := os.Stat(currentPath); err != nil {
		return op, fmt.Errorf("%w: %s", relocate.ErrFileNotOnDisk, currentPath)
	}
	op.complete(StepCheckAvailable)

	// The published link location under the old identity, needed later
	// to drop the stale mirror.
	oldLinkPath := u.moves.PublishedLinkPath(file)

	// Step 2: in-file edits, then the same new value on the in-memory
	// record so the path builder sees the new identity.
	if err := strategy.RewriteFile(ctx, u.run, currentPath, file); err != nil {
		return op, fmt.Errorf("attribute rewrite failed for %s: %w", file.Name, err)
	}
	strategy.Apply(file)
	op.complete(StepRewriteAttributes)

	// Step 3: rename to the canonical filename under the new identity.
	newName, err := drs.ConstructFilename(file)
	if err != nil {
		return op, err
	}
	if newName != file.Name {
		newPath := filepath.Join(oldDir, newName)
		if err := os.Rename(currentPath, newPath); err != nil {
			return op, fmt.Errorf("failed to rename %s: %w", currentPath, err)
		}
		file.Name = newName
		currentPath = newPath
	}
	op.complete(StepRenameFile)

	// Step 4: move to the canonical directory under the new identity
	// and refresh the published mirror.
	if !strategy.SkipRelocate() {
		root, err := relocate.WorkspaceRoot(oldDir)
		if err != nil {
			root = u.cfg.BaseOutputDir
		}
		newDir := filepath.Join(root, drs.ConstructPath(file))
		if newDir != oldDir {
			if err := os.MkdirAll(newDir, 0o755); err != nil {
				return op, fmt.Errorf("failed to create %s: %w", newDir, err)
			}
			newPath := filepath.Join(newDir, file.Name)
			if err := os.Rename(currentPath, newPath); err != nil {
				return op, fmt.Errorf("failed to move %s to %s: %w", currentPath, newPath, err)
			}
			file.Directory = &newDir
			currentPath = newPath
			u.moves.CleanupDirectory(oldDir)
		}
	}
	if err := u.moves.ReconcilePublishedLink(file, oldLinkPath); err != nil {
		return op, err
	}
	op.complete(StepRelocateDirectory)

	if fileOnly {
		u.log.Info("[%s] file-only update of %s finished", op.ID, file.Name)
		return op, nil
	}

	// Step 5: fresh checksum and size for the rewritten file. The prior
	// live checksum still describes the copy on tape, so it is
	// snapshotted before being replaced.
	if err := u.updateChecksum(ctx, file, currentPath); err != nil {
		return op, err
	}
	op.complete(StepUpdateChecksum)

	// Step 6: all database changes in one transaction.
	err = u.st.WithTransaction(ctx, func(tx store.MetadataStore) error {
		return u.updateDatabase(ctx, tx, file, strategy)
	})
	if err != nil {
		return op, fmt.Errorf("database update failed for %s: %w", file.Name, err)
	}
	op.complete(StepUpdateDatabase)

	u.log.Info("[%s] %s update of %s finished", op.ID, op.Strategy, file.Name)
	return op, nil
}

func (u *Updater) updateChecksum(ctx context.Context, file *models.DataFile, path string) error {
	sum, err := drs.Adler32(path)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	previous, err := u.st.FirstChecksumForFile(ctx, file.ID)
	if err != nil {
		return err
	}
	if previous != nil {
		err := u.st.CreateTapeChecksum(ctx, &models.TapeChecksum{
			DataFileID:    file.ID,
			ChecksumValue: previous.ChecksumValue,
			ChecksumType:  previous.ChecksumType,
		})
		if err != nil {
			return err
		}
		if err := u.st.DeleteChecksum(ctx, previous.ID); err != nil {
			return err
		}
		oldSize := file.Size
		file.TapeSize = &oldSize
	}

	err = u.st.CreateChecksum(ctx, &models.Checksum{
		DataFileID:    file.ID,
		ChecksumValue: sum,
		ChecksumType:  models.ChecksumAdler32,
	})
	if err != nil {
		return err
	}

	file.Size = info.Size()
	return nil
}

func (u *Updater) updateDatabase(ctx context.Context, tx store.MetadataStore, file *models.DataFile, strategy Strategy) error {
	if err := strategy.UpdateVocabulary(ctx, tx, file); err != nil {
		return err
	}

	oldDataRequestID := file.DataRequestID
	if strategy.ChangesDataRequest() {
		if err := u.repointDataRequest(ctx, tx, file); err != nil {
			return err
		}
	}

	if err := tx.UpdateDataFile(ctx, file); err != nil {
		return err
	}

	if strategy.ChangesDataRequest() && file.DataRequestID != oldDataRequestID {
		return u.retireDataRequest(ctx, tx, oldDataRequestID)
	}
	return nil
}

// repointDataRequest finds or creates the data request matching the
// file's new identity tuple. A new request inherits the old one's time
// window so retrieval sizing keeps working.
func (u *Updater) repointDataRequest(ctx context.Context, tx store.MetadataStore, file *models.DataFile) error {
	identity := models.DataRequest{
		ProjectID:         file.ProjectID,
		InstituteID:       file.InstituteID,
		ClimateModelID:    file.ClimateModelID,
		ExperimentID:      file.ExperimentID,
		VariableRequestID: file.VariableRequestID,
		RipCode:           file.RipCode,
	}

	dreq, err := tx.FindDataRequest(ctx, identity)
	if err != nil {
		return err
	}
	if dreq == nil {
		old, err := tx.GetDataRequest(ctx, file.DataRequestID)
		if err != nil {
			return err
		}
		identity.RequestStartTime = old.RequestStartTime
		identity.RequestEndTime = old.RequestEndTime
		identity.TimeUnits = old.TimeUnits
		identity.Calendar = old.Calendar

		dreq = &identity
		if err := tx.CreateDataRequest(ctx, dreq); err != nil {
			return err
		}
	}

	file.DataRequestID = dreq.ID
	file.DataRequest = *dreq
	return nil
}

// retireDataRequest removes a data request that the update emptied. One
// still referenced by retrieval requests or the replacement ledger is
// kept but relabelled with the sentinel variant code so it can no longer
// match a real identity.
func (u *Updater) retireDataRequest(ctx context.Context, tx store.MetadataStore, id uint) error {
	count, err := tx.CountFilesForDataRequest(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	referenced, err := tx.DataRequestReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		old, err := tx.GetDataRequest(ctx, id)
		if err != nil {
			return err
		}
		old.RipCode = models.RipCodeSentinel
		return tx.UpdateDataRequest(ctx, old)
	}
	return tx.DeleteDataRequest(ctx, id)
}
