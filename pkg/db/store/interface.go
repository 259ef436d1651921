package store

import (
	"context"

	"github.com/primdata/dmt/pkg/db/models"
)

// DirectoryUsage summarises one directory a DataRequest's files occupy.
type DirectoryUsage struct {
	DirName  string
	NumFiles int
	DirSize  int64
}

// MetadataStore defines the interface for database operations
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// WithTransaction runs fn against a store bound to one transaction;
	// any error rolls the whole transaction back.
	WithTransaction(ctx context.Context, fn func(MetadataStore) error) error

	// Vocabulary operations
	GetOrCreateProject(ctx context.Context, shortName, fullName string) (*models.Project, error)
	GetOrCreateInstitute(ctx context.Context, shortName, fullName string) (*models.Institute, error)
	GetOrCreateClimateModel(ctx context.Context, shortName, fullName string) (*models.ClimateModel, error)
	GetOrCreateExperiment(ctx context.Context, shortName, fullName string) (*models.Experiment, error)
	GetOrCreateActivityID(ctx context.Context, shortName, fullName string) (*models.ActivityID, error)

	// Variable request operations
	GetOrCreateVariableRequest(ctx context.Context, vr *models.VariableRequest) (*models.VariableRequest, error)
	UpdateVariableRequest(ctx context.Context, vr *models.VariableRequest) error

	// Data file operations
	CreateDataFile(ctx context.Context, file *models.DataFile) error
	GetDataFile(ctx context.Context, id uint) (*models.DataFile, error)
	GetDataFileByName(ctx context.Context, name string) (*models.DataFile, error)
	UpdateDataFile(ctx context.Context, file *models.DataFile) error
	DeleteDataFile(ctx context.Context, id uint) error
	FilesForDataRequests(ctx context.Context, dataRequestIDs []uint) ([]models.DataFile, error)
	CountFilesForDataRequest(ctx context.Context, dataRequestID uint) (int64, error)

	// Checksum operations
	CreateChecksum(ctx context.Context, checksum *models.Checksum) error
	FirstChecksumForFile(ctx context.Context, dataFileID uint) (*models.Checksum, error)
	DeleteChecksum(ctx context.Context, id uint) error
	DeleteChecksumsForFile(ctx context.Context, dataFileID uint) error
	CreateTapeChecksum(ctx context.Context, checksum *models.TapeChecksum) error
	TapeChecksumsForFile(ctx context.Context, dataFileID uint) ([]models.TapeChecksum, error)

	// Data request operations
	GetDataRequest(ctx context.Context, id uint) (*models.DataRequest, error)
	FindDataRequest(ctx context.Context, identity models.DataRequest) (*models.DataRequest, error)
	CreateDataRequest(ctx context.Context, dreq *models.DataRequest) error
	UpdateDataRequest(ctx context.Context, dreq *models.DataRequest) error
	DeleteDataRequest(ctx context.Context, id uint) error
	DataRequestReferenced(ctx context.Context, id uint) (bool, error)
	DirectoriesSpanned(ctx context.Context, dataRequestID uint) ([]DirectoryUsage, error)

	// Replaced file ledger operations
	CreateReplacedFile(ctx context.Context, file *models.ReplacedFile) error
	ReplacedFileExists(ctx context.Context, name, incomingDirectory string) (bool, error)
	ListReplacedFilesByNames(ctx context.Context, names []string) ([]models.ReplacedFile, error)
	DeleteReplacedFile(ctx context.Context, id uint) error

	// Retrieval request operations
	CreateRetrievalRequest(ctx context.Context, req *models.RetrievalRequest) error
	GetRetrievalRequest(ctx context.Context, id uint) (*models.RetrievalRequest, error)
	ListPendingRetrievalRequests(ctx context.Context) ([]models.RetrievalRequest, error)
	UpdateRetrievalRequest(ctx context.Context, req *models.RetrievalRequest) error

	// Data submission operations
	CreateDataSubmission(ctx context.Context, sub *models.DataSubmission) error
	GetDataSubmission(ctx context.Context, id string) (*models.DataSubmission, error)
	UpdateDataSubmission(ctx context.Context, sub *models.DataSubmission) error
}
