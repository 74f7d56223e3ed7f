package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrNoUpload means the company exists but has never stored a batch
var ErrNoUpload = errors.New("company has no uploads")

// ReportStore is the persistence the report service needs
type ReportStore interface {
	GetCompany(ctx context.Context, id int64) (models.Company, error)
	InsertUploadItems(ctx context.Context, companyID int64, items []models.ConsolidatedItem, createdAt time.Time) (int64, error)
	GetLatestBatchTime(ctx context.Context, companyID int64) (time.Time, bool, error)
	GetUploadItemsAt(ctx context.Context, companyID int64, createdAt time.Time) ([]models.ConsolidatedItem, error)
}

// ReportCache keeps built reports per company, keyed by the batch they were built from
type ReportCache interface {
	GetReport(ctx context.Context, companyID int64, batchAt time.Time) (*models.Report, bool, error)
	SetReport(ctx context.Context, companyID int64, batchAt time.Time, report *models.Report) error
	Invalidate(ctx context.Context, companyID int64) error
}

// ReportService stores upload batches and rebuilds the latest report per company
type ReportService struct {
	store ReportStore
	cache ReportCache
	now   func() time.Time
}

func NewReportService(store ReportStore, cache ReportCache) *ReportService {
	return &ReportService{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// Save persists the report's items as one batch and drops the cached report
func (s *ReportService) Save(ctx context.Context, companyID int64, report *models.Report) error {
	n, err := s.store.InsertUploadItems(ctx, companyID, report.TabelaConsolidada, s.now().UTC())
	if err != nil {
		return fmt.Errorf("store upload batch: %w", err)
	}

	s.Forget(ctx, companyID)

	logger.Log.Info().
		Int64("company_id", companyID).
		Int64("rows", n).
		Msg("Stored upload batch")
	return nil
}

// Latest rebuilds the report of the most recent batch. Company name and CNPJ come
// from the company record. Returns ErrNoUpload when there is no batch.
//
// Cache entries are keyed by the batch timestamp, so an entry written by a request
// that raced with a newer upload is never served for the newer batch.
func (s *ReportService) Latest(ctx context.Context, companyID int64) (*models.Report, error) {
	var (
		company models.Company
		batchAt time.Time
		found   bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		company, err = s.store.GetCompany(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		batchAt, found, err = s.store.GetLatestBatchTime(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !found {
		return nil, ErrNoUpload
	}

	if cached, ok, err := s.cache.GetReport(ctx, companyID, batchAt); err != nil {
		logger.Log.Warn().Err(err).Int64("company_id", companyID).Msg("Report cache read failed")
	} else if ok {
		cached.Empresa = companyMeta(company)
		return cached, nil
	}

	items, err := s.store.GetUploadItemsAt(ctx, companyID, batchAt)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		// Company deleted between the two reads
		return nil, ErrNoUpload
	}

	report := BuildReport(items, companyMeta(company))

	if err := s.cache.SetReport(ctx, companyID, batchAt, report); err != nil {
		logger.Log.Warn().Err(err).Int64("company_id", companyID).Msg("Report cache write failed")
	}

	return report, nil
}

func companyMeta(company models.Company) *models.CompanyMeta {
	if company.Name == "" && company.CNPJ == "" {
		return nil
	}
	return &models.CompanyMeta{Nome: company.Name, CNPJ: company.CNPJ}
}

// Forget drops every cached report of the company; failures are logged only
func (s *ReportService) Forget(ctx context.Context, companyID int64) {
	if err := s.cache.Invalidate(ctx, companyID); err != nil {
		logger.Log.Warn().Err(err).Int64("company_id", companyID).Msg("Report cache invalidation failed")
	}
}
