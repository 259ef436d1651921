// Package retrieval sizes tape-retrieval requests and summarises the
// directories a data request's files occupy.
package retrieval

import (
	"context"
	"fmt"

	"github.com/primdata/dmt/pkg/cftime"
	"github.com/primdata/dmt/pkg/db/models"
	"github.com/primdata/dmt/pkg/db/store"
	"github.com/primdata/dmt/pkg/log"
)

// ErrInvalidFilterCombination is returned when a size query asks for
// files that are both online-only and offline-only.
var ErrInvalidFilterCombination = fmt.Errorf("online and offline filters are mutually exclusive")

// Filter narrows a size query to one side of the online/offline split.
// Setting both fields is a contract violation.
type Filter struct {
	OnlineOnly  bool
	OfflineOnly bool
}

type Service struct {
	st  store.MetadataStore
	log log.LoggerService
}

func NewService(st store.MetadataStore, logger log.LoggerService) *Service {
	return &Service{
		st:  st,
		log: logger.Named("retrieval"),
	}
}

// RequestSize returns the total size in bytes of the files belonging to
// the given data requests whose time extent overlaps the year window
// [startYear, endYear], both ends inclusive. Each file's extent is
// compared in its own reference unit and calendar, since different
// submissions may use different epochs.
func (s *Service) RequestSize(ctx context.Context, dataRequestIDs []uint, startYear, endYear int, filter Filter) (int64, error) {
	if filter.OnlineOnly && filter.OfflineOnly {
		return 0, ErrInvalidFilterCombination
	}

	files, err := s.st.FilesForDataRequests(ctx, dataRequestIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load files for size query: %w", err)
	}

	matched := make([]models.DataFile, 0, len(files))
	for _, file := range files {
		if filter.OnlineOnly && !file.Online {
			continue
		}
		if filter.OfflineOnly && file.Online {
			continue
		}
		matched = append(matched, file)
	}

	matched, err = DateFilterFiles(matched, startYear, endYear)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, file := range matched {
		total += file.Size
	}
	return total, nil
}

// RetrievalSize is RequestSize for an existing retrieval request, using
// the window it was created with and counting only its offline files.
func (s *Service) RetrievalSize(ctx context.Context, req *models.RetrievalRequest) (int64, error) {
	ids := make([]uint, 0, len(req.DataRequests))
	for _, dreq := range req.DataRequests {
		ids = append(ids, dreq.ID)
	}
	return s.RequestSize(ctx, ids, req.StartYear, req.EndYear, Filter{OfflineOnly: true})
}

// DateFilterFiles keeps the files whose time extent overlaps the year
// window [startYear, endYear]. The window covers the whole of the end
// year, so its upper bound is 1 January of the following year,
// exclusive. The boundaries are converted into each file's own unit and
// calendar before comparing. Files without a time extent are always
// kept.
func DateFilterFiles(files []models.DataFile, startYear, endYear int) ([]models.DataFile, error) {
	kept := make([]models.DataFile, 0, len(files))
	for _, file := range files {
		if file.StartTime == nil || file.EndTime == nil {
			kept = append(kept, file)
			continue
		}

		cal := cftime.Calendar(file.Calendar)
		windowStart, err := cftime.PartialDateToNumber(
			cftime.YearMonth(startYear, 1), file.TimeUnits, cal, true)
		if err != nil {
			return nil, fmt.Errorf("failed to place window start for %s: %w", file.Name, err)
		}
		windowEnd, err := cftime.PartialDateToNumber(
			cftime.YearMonth(endYear+1, 1), file.TimeUnits, cal, true)
		if err != nil {
			return nil, fmt.Errorf("failed to place window end for %s: %w", file.Name, err)
		}

		if *file.EndTime >= windowStart && *file.StartTime < windowEnd {
			kept = append(kept, file)
		}
	}
	return kept, nil
}

// DirectoriesSpanned returns the distinct directories the data request's
// online files occupy, largest file count first, ties broken
// alphabetically.
func (s *Service) DirectoriesSpanned(ctx context.Context, dataRequestID uint) ([]store.DirectoryUsage, error) {
	return s.st.DirectoriesSpanned(ctx, dataRequestID)
}

// CreateRequest records a new retrieval request over the given data
// requests. The request is immutable once created; completion and
// deletion are recorded as timestamps later.
func (s *Service) CreateRequest(ctx context.Context, requester string, dataRequestIDs []uint, startYear, endYear int) (*models.RetrievalRequest, error) {
	if len(dataRequestIDs) == 0 {
		return nil, fmt.Errorf("a retrieval request needs at least one data request")
	}
	if startYear > endYear {
		return nil, fmt.Errorf("start year %d is after end year %d", startYear, endYear)
	}

	dreqs := make([]models.DataRequest, 0, len(dataRequestIDs))
	for _, id := range dataRequestIDs {
		dreq, err := s.st.GetDataRequest(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load data request %d: %w", id, err)
		}
		dreqs = append(dreqs, *dreq)
	}

	req := &models.RetrievalRequest{
		Requester:    requester,
		StartYear:    startYear,
		EndYear:      endYear,
		DataRequests: dreqs,
	}
	if err := s.st.CreateRetrievalRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to record retrieval request: %w", err)
	}

	s.log.Info("created retrieval request %d over %d data requests, years %d to %d",
		req.ID, len(dreqs), startYear, endYear)
	return req, nil
}
