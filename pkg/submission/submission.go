// Package submission ingests validated-metadata YAML documents and
// creates the corresponding database records. Validation of the files
// themselves happens upstream; by the time a document arrives here its
// contents are trusted.
package submission

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/primdata/dmt/pkg/cftime"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/log"
)

// Document is the metadata contract delivered by the validation
// tooling: one submission header plus a record per file.
type Document struct {
	Submission Header       `yaml:"submission"`
	Files      []FileRecord `yaml:"files"`
}

type Header struct {
	IncomingDirectory string `yaml:"incoming_directory"`
	User              string `yaml:"user"`
}

type FileRecord struct {
	Name      string `yaml:"name"`
	Directory string `yaml:"directory"`
	Size      int64  `yaml:"size"`
	Online    bool   `yaml:"online"`
	Version   string `yaml:"version"`
	Grid      string `yaml:"grid"`
	RipCode   string `yaml:"rip_code"`
	Frequency string `yaml:"frequency"`

	Project      string `yaml:"project"`
	ActivityID   string `yaml:"activity_id"`
	Institute    string `yaml:"institute"`
	ClimateModel string `yaml:"climate_model"`
	Experiment   string `yaml:"experiment"`

	Table    string `yaml:"table"`
	CmorName string `yaml:"cmor_name"`
	VarName  string `yaml:"var_name"`
	OutName  string `yaml:"out_name"`

	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	TimeUnits string `yaml:"time_units"`
	Calendar  string `yaml:"calendar"`

	Checksum     string `yaml:"checksum"`
	ChecksumType string `yaml:"checksum_type"`
}

type Service struct {
	st  store.MetadataStore
	log log.LoggerService
}

func NewService(st store.MetadataStore, logger log.LoggerService) *Service {
	return &Service{
		st:  st,
		log: logger.Named("submission"),
	}
}

// IngestFile reads one metadata YAML document from disk and ingests it.
func (s *Service) IngestFile(ctx context.Context, path string) (*models.DataSubmission, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s.Ingest(ctx, &doc)
}

// Ingest creates the submission and one data file per record, all in a
// single transaction so a bad record rejects the whole document.
func (s *Service) Ingest(ctx context.Context, doc *Document) (*models.DataSubmission, error) {
	if doc.Submission.IncomingDirectory == "" {
		return nil, fmt.Errorf("submission has no incoming directory")
	}
	if len(doc.Files) == 0 {
		return nil, fmt.Errorf("submission has no files")
	}

	sub := &models.DataSubmission{
		ID:                uuid.NewString(),
		Status:            models.SubmissionValidated,
		IncomingDirectory: doc.Submission.IncomingDirectory,
		User:              doc.Submission.User,
	}

	err := s.st.WithTransaction(ctx, func(tx store.MetadataStore) error {
		if err := tx.CreateDataSubmission(ctx, sub); err != nil {
			return err
		}
		for i := range doc.Files {
			if err := s.ingestRecord(ctx, tx, sub, &doc.Files[i]); err != nil {
				return fmt.Errorf("record %s: %w", doc.Files[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("ingested submission %s: %d files from %s",
		sub.ID, len(doc.Files), sub.IncomingDirectory)
	return sub, nil
}

func (s *Service) ingestRecord(ctx context.Context, tx store.MetadataStore, sub *models.DataSubmission, rec *FileRecord) error {
	project, err := tx.GetOrCreateProject(ctx, rec.Project, rec.Project)
	if err != nil {
		return err
	}
	institute, err := tx.GetOrCreateInstitute(ctx, rec.Institute, rec.Institute)
	if err != nil {
		return err
	}
	climateModel, err := tx.GetOrCreateClimateModel(ctx, rec.ClimateModel, rec.ClimateModel)
	if err != nil {
		return err
	}
	experiment, err := tx.GetOrCreateExperiment(ctx, rec.Experiment, rec.Experiment)
	if err != nil {
		return err
	}
	activity, err := tx.GetOrCreateActivityID(ctx, rec.ActivityID, rec.ActivityID)
	if err != nil {
		return err
	}
	variable, err := tx.GetOrCreateVariableRequest(ctx, &models.VariableRequest{
		TableName: rec.Table,
		CmorName:  rec.CmorName,
		VarName:   rec.VarName,
		OutName:   rec.OutName,
		Frequency: rec.Frequency,
	})
	if err != nil {
		return err
	}

	startTime, endTime, err := resolveTimes(rec)
	if err != nil {
		return err
	}

	identity := models.DataRequest{
		ProjectID:         project.ID,
		InstituteID:       institute.ID,
		ClimateModelID:    climateModel.ID,
		ExperimentID:      experiment.ID,
		VariableRequestID: variable.ID,
		RipCode:           rec.RipCode,
	}
	dreq, err := tx.FindDataRequest(ctx, identity)
	if err != nil {
		return err
	}
	if dreq == nil {
		identity.RequestStartTime = startTime
		identity.RequestEndTime = endTime
		identity.TimeUnits = rec.TimeUnits
		identity.Calendar = rec.Calendar
		dreq = &identity
		if err := tx.CreateDataRequest(ctx, dreq); err != nil {
			return err
		}
	}

	var directory *string
	if rec.Online {
		if rec.Directory == "" {
			return fmt.Errorf("online file has no directory")
		}
		directory = &rec.Directory
	}

	file := &models.DataFile{
		Name:              rec.Name,
		IncomingName:      rec.Name,
		IncomingDirectory: sub.IncomingDirectory,
		Directory:         directory,
		Online:            rec.Online,
		Size:              rec.Size,
		Version:           rec.Version,
		Grid:              rec.Grid,
		RipCode:           rec.RipCode,
		Frequency:         rec.Frequency,
		StartTime:         startTime,
		EndTime:           endTime,
		TimeUnits:         rec.TimeUnits,
		Calendar:          rec.Calendar,
		ProjectID:         project.ID,
		InstituteID:       institute.ID,
		ClimateModelID:    climateModel.ID,
		ExperimentID:      experiment.ID,
		ActivityIDID:      activity.ID,
		VariableRequestID: variable.ID,
		DataRequestID:     dreq.ID,
		DataSubmissionID:  &sub.ID,
	}
	if err := tx.CreateDataFile(ctx, file); err != nil {
		return err
	}

	if rec.Checksum != "" {
		checksumType := rec.ChecksumType
		if checksumType == "" {
			checksumType = models.ChecksumAdler32
		}
		err := tx.CreateChecksum(ctx, &models.Checksum{
			DataFileID:    file.ID,
			ChecksumValue: rec.Checksum,
			ChecksumType:  checksumType,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// resolveTimes converts a record's partial date strings into numeric
// offsets in its own reference unit. Time-invariant records leave both
// dates empty.
func resolveTimes(rec *FileRecord) (*float64, *float64, error) {
	if rec.StartDate == "" && rec.EndDate == "" {
		return nil, nil, nil
	}
	if rec.StartDate == "" || rec.EndDate == "" {
		return nil, nil, fmt.Errorf("start and end dates must both be present or both absent")
	}

	cal := cftime.Calendar(rec.Calendar)

	startPdt, err := cftime.ParsePartialDate(rec.StartDate)
	if err != nil {
		return nil, nil, err
	}
	start, err := cftime.PartialDateToNumber(startPdt, rec.TimeUnits, cal, true)
	if err != nil {
		return nil, nil, err
	}

	endPdt, err := cftime.ParsePartialDate(rec.EndDate)
	if err != nil {
		return nil, nil, err
	}
	end, err := cftime.PartialDateToNumber(endPdt, rec.TimeUnits, cal, false)
	if err != nil {
		return nil, nil, err
	}

	return &start, &end, nil
}
