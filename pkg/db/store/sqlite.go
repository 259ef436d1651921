package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/primdata/dmt/pkg/db/migrations"
	"github.com/primdata/dmt/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements MetadataStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// NewSQLiteStore creates a new SQLite-backed metadata store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate applies all pending schema migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// WithTransaction runs fn against a store bound to a single transaction.
func (s *SQLiteStore) WithTransaction(ctx context.Context, fn func(MetadataStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLiteStore{db: tx, path: s.path})
	})
}

// Vocabulary operations

func (s *SQLiteStore) GetOrCreateProject(ctx context.Context, shortName, fullName string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Where(models.Project{ShortName: shortName}).
		Attrs(models.Project{FullName: fullName}).
		FirstOrCreate(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *SQLiteStore) GetOrCreateInstitute(ctx context.Context, shortName, fullName string) (*models.Institute, error) {
	var institute models.Institute
	err := s.db.WithContext(ctx).
		Where(models.Institute{ShortName: shortName}).
		Attrs(models.Institute{FullName: fullName}).
		FirstOrCreate(&institute).Error
	if err != nil {
		return nil, err
	}
	return &institute, nil
}

func (s *SQLiteStore) GetOrCreateClimateModel(ctx context.Context, shortName, fullName string) (*models.ClimateModel, error) {
	var model models.ClimateModel
	err := s.db.WithContext(ctx).
		Where(models.ClimateModel{ShortName: shortName}).
		Attrs(models.ClimateModel{FullName: fullName}).
		FirstOrCreate(&model).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (s *SQLiteStore) GetOrCreateExperiment(ctx context.Context, shortName, fullName string) (*models.Experiment, error) {
	var experiment models.Experiment
	err := s.db.WithContext(ctx).
		Where(models.Experiment{ShortName: shortName}).
		Attrs(models.Experiment{FullName: fullName}).
		FirstOrCreate(&experiment).Error
	if err != nil {
		return nil, err
	}
	return &experiment, nil
}

func (s *SQLiteStore) GetOrCreateActivityID(ctx context.Context, shortName, fullName string) (*models.ActivityID, error) {
	var activity models.ActivityID
	err := s.db.WithContext(ctx).
		Where(models.ActivityID{ShortName: shortName}).
		Attrs(models.ActivityID{FullName: fullName}).
		FirstOrCreate(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// Variable request operations

func (s *SQLiteStore) GetOrCreateVariableRequest(ctx context.Context, vr *models.VariableRequest) (*models.VariableRequest, error) {
	var existing models.VariableRequest
	err := s.db.WithContext(ctx).
		Where(models.VariableRequest{TableName: vr.TableName, CmorName: vr.CmorName}).
		Attrs(*vr).
		FirstOrCreate(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (s *SQLiteStore) UpdateVariableRequest(ctx context.Context, vr *models.VariableRequest) error {
	return s.db.WithContext(ctx).Save(vr).Error
}

// Data file operations

func (s *SQLiteStore) CreateDataFile(ctx context.Context, file *models.DataFile) error {
	return s.db.WithContext(ctx).Create(file).Error
}

func (s *SQLiteStore) GetDataFile(ctx context.Context, id uint) (*models.DataFile, error) {
	var file models.DataFile
	err := s.preloadDataFile(ctx).First(&file, id).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *SQLiteStore) GetDataFileByName(ctx context.Context, name string) (*models.DataFile, error) {
	var file models.DataFile
	err := s.preloadDataFile(ctx).Where("name = ?", name).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *SQLiteStore) preloadDataFile(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Project").
		Preload("Institute").
		Preload("ClimateModel").
		Preload("Experiment").
		Preload("ActivityID").
		Preload("VariableRequest").
		Preload("DataRequest")
}

func (s *SQLiteStore) UpdateDataFile(ctx context.Context, file *models.DataFile) error {
	return s.db.WithContext(ctx).Omit(clauseAssociations...).Save(file).Error
}

// clauseAssociations prevents Save from writing stale preloaded relations
// back over vocabulary rows.
var clauseAssociations = []string{
	"Project", "Institute", "ClimateModel", "Experiment",
	"ActivityID", "VariableRequest", "DataRequest",
	"Checksums", "TapeChecksums",
}

func (s *SQLiteStore) DeleteDataFile(ctx context.Context, id uint) error {
	if err := s.DeleteChecksumsForFile(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.DataFile{}, id).Error
}

func (s *SQLiteStore) FilesForDataRequests(ctx context.Context, dataRequestIDs []uint) ([]models.DataFile, error) {
	var files []models.DataFile
	err := s.db.WithContext(ctx).
		Where("data_request_id IN ?", dataRequestIDs).
		Find(&files).Error
	return files, err
}

func (s *SQLiteStore) CountFilesForDataRequest(ctx context.Context, dataRequestID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.DataFile{}).
		Where("data_request_id = ?", dataRequestID).
		Count(&count).Error
	return count, err
}

// Checksum operations

func (s *SQLiteStore) CreateChecksum(ctx context.Context, checksum *models.Checksum) error {
	return s.db.WithContext(ctx).Create(checksum).Error
}

func (s *SQLiteStore) FirstChecksumForFile(ctx context.Context, dataFileID uint) (*models.Checksum, error) {
	var checksum models.Checksum
	err := s.db.WithContext(ctx).
		Where("data_file_id = ?", dataFileID).
		Order("id").
		First(&checksum).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &checksum, nil
}

func (s *SQLiteStore) DeleteChecksum(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Checksum{}, id).Error
}

func (s *SQLiteStore) DeleteChecksumsForFile(ctx context.Context, dataFileID uint) error {
	if err := s.db.WithContext(ctx).
		Where("data_file_id = ?", dataFileID).
		Delete(&models.Checksum{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("data_file_id = ?", dataFileID).
		Delete(&models.TapeChecksum{}).Error
}

func (s *SQLiteStore) CreateTapeChecksum(ctx context.Context, checksum *models.TapeChecksum) error {
	return s.db.WithContext(ctx).Create(checksum).Error
}

func (s *SQLiteStore) TapeChecksumsForFile(ctx context.Context, dataFileID uint) ([]models.TapeChecksum, error) {
	var checksums []models.TapeChecksum
	err := s.db.WithContext(ctx).
		Where("data_file_id = ?", dataFileID).
		Order("id").
		Find(&checksums).Error
	return checksums, err
}

// Data request operations

func (s *SQLiteStore) GetDataRequest(ctx context.Context, id uint) (*models.DataRequest, error) {
	var dreq models.DataRequest
	err := s.db.WithContext(ctx).
		Preload("Project").
		Preload("Institute").
		Preload("ClimateModel").
		Preload("Experiment").
		Preload("VariableRequest").
		First(&dreq, id).Error
	if err != nil {
		return nil, err
	}
	return &dreq, nil
}

func (s *SQLiteStore) FindDataRequest(ctx context.Context, identity models.DataRequest) (*models.DataRequest, error) {
	var dreq models.DataRequest
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND institute_id = ? AND climate_model_id = ? AND "+
			"experiment_id = ? AND variable_request_id = ? AND rip_code = ?",
			identity.ProjectID, identity.InstituteID, identity.ClimateModelID,
			identity.ExperimentID, identity.VariableRequestID, identity.RipCode).
		First(&dreq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dreq, nil
}

func (s *SQLiteStore) CreateDataRequest(ctx context.Context, dreq *models.DataRequest) error {
	return s.db.WithContext(ctx).Create(dreq).Error
}

func (s *SQLiteStore) UpdateDataRequest(ctx context.Context, dreq *models.DataRequest) error {
	return s.db.WithContext(ctx).
		Omit("Project", "Institute", "ClimateModel", "Experiment",
			"VariableRequest", "DataFiles").
		Save(dreq).Error
}

func (s *SQLiteStore) DeleteDataRequest(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.DataRequest{}, id).Error
}

func (s *SQLiteStore) DataRequestReferenced(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table("retrieval_request_data_requests").
		Where("data_request_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = s.db.WithContext(ctx).
		Model(&models.ReplacedFile{}).
		Where("data_request_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) DirectoriesSpanned(ctx context.Context, dataRequestID uint) ([]DirectoryUsage, error) {
	var usages []DirectoryUsage
	err := s.db.WithContext(ctx).
		Model(&models.DataFile{}).
		Select("directory AS dir_name, COUNT(*) AS num_files, SUM(size) AS dir_size").
		Where("data_request_id = ? AND directory IS NOT NULL", dataRequestID).
		Group("directory").
		Order("num_files DESC, directory ASC").
		Scan(&usages).Error
	return usages, err
}

// Replaced file ledger operations

func (s *SQLiteStore) CreateReplacedFile(ctx context.Context, file *models.ReplacedFile) error {
	return s.db.WithContext(ctx).
		Omit("Project", "Institute", "ClimateModel", "Experiment",
			"ActivityID", "VariableRequest", "DataRequest").
		Create(file).Error
}

func (s *SQLiteStore) ReplacedFileExists(ctx context.Context, name, incomingDirectory string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ReplacedFile{}).
		Where("name = ? AND incoming_directory = ?", name, incomingDirectory).
		Count(&count).Error
	return count > 0, err
}

func (s *SQLiteStore) ListReplacedFilesByNames(ctx context.Context, names []string) ([]models.ReplacedFile, error) {
	var files []models.ReplacedFile
	err := s.db.WithContext(ctx).
		Where("name IN ?", names).
		Find(&files).Error
	return files, err
}

func (s *SQLiteStore) DeleteReplacedFile(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.ReplacedFile{}, id).Error
}

// Retrieval request operations

func (s *SQLiteStore) CreateRetrievalRequest(ctx context.Context, req *models.RetrievalRequest) error {
	// Omit("DataRequests.*") writes the join rows without re-inserting
	// the data requests themselves.
	return s.db.WithContext(ctx).Omit("DataRequests.*").Create(req).Error
}

func (s *SQLiteStore) GetRetrievalRequest(ctx context.Context, id uint) (*models.RetrievalRequest, error) {
	var req models.RetrievalRequest
	err := s.db.WithContext(ctx).
		Preload("DataRequests").
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *SQLiteStore) ListPendingRetrievalRequests(ctx context.Context) ([]models.RetrievalRequest, error) {
	var reqs []models.RetrievalRequest
	err := s.db.WithContext(ctx).
		Preload("DataRequests").
		Where("date_complete IS NULL AND date_deleted IS NULL").
		Order("date_created").
		Find(&reqs).Error
	return reqs, err
}

func (s *SQLiteStore) UpdateRetrievalRequest(ctx context.Context, req *models.RetrievalRequest) error {
	return s.db.WithContext(ctx).Omit("DataRequests").Save(req).Error
}

// Data submission operations

func (s *SQLiteStore) CreateDataSubmission(ctx context.Context, sub *models.DataSubmission) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *SQLiteStore) GetDataSubmission(ctx context.Context, id string) (*models.DataSubmission, error) {
	var sub models.DataSubmission
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SQLiteStore) UpdateDataSubmission(ctx context.Context, sub *models.DataSubmission) error {
	return s.db.WithContext(ctx).Omit("DataFiles").Save(sub).Error
}
