package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/opencampus/sims-api/internal/models"
	appErrors "github.com/opencampus/sims-api/pkg/errors"
	"github.com/opencampus/sims-api/pkg/export"
	"github.com/opencampus/sims-api/pkg/jobs"
)

type reportRepository interface {
	CreateJob(ctx context.Context, job *models.ReportJob) error
	FindJobByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListJobs(ctx context.Context, limit int) ([]models.ReportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, note string, failedAt time.Time) error
	EnrollmentSummary(ctx context.Context) ([]models.EnrollmentSummaryRow, error)
	GradeSummary(ctx context.Context) ([]models.GradeSummaryRow, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type reportSigner interface {
	Generate(reportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (reportID, relPath string, expiresAt time.Time, err error)
}

type reportQueue interface {
	Enqueue(job jobs.Job) error
}

const jobTypeReportExport = "report_export"

// SignedDownload is a ready-to-use download grant for a finished report.
type SignedDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportService runs admin exports asynchronously. A request creates a
// queued job row, a worker renders the file, and downloads go through
// short-lived signed tokens instead of raw paths.
type ReportService struct {
	reports reportRepository
	storage reportStorage
	signer  reportSigner
	queue   reportQueue
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewReportService constructs a ReportService. Call BindQueue before
// serving requests so jobs have somewhere to go.
func NewReportService(reports reportRepository, storage reportStorage, signer reportSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports: reports,
		storage: storage,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// BindQueue attaches the worker queue the service enqueues into. Split from
// the constructor because the queue handler is this service's Process.
func (s *ReportService) BindQueue(queue reportQueue) {
	s.queue = queue
}

// Request creates a queued report job and hands it to the worker pool.
func (s *ReportService) Request(ctx context.Context, requestedBy, reportType, format string) (*models.ReportJob, error) {
	switch reportType {
	case models.ReportTypeEnrollmentSummary, models.ReportTypeGradeSummary:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report type")
	}
	switch format {
	case "csv", "pdf":
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report format")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report workers are not running")
	}

	job := &models.ReportJob{
		ReportType:  reportType,
		Format:      format,
		RequestedBy: requestedBy,
	}
	if err := s.reports.CreateJob(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: jobTypeReportExport, Payload: job.ID}); err != nil {
		if markErr := s.reports.MarkFailed(ctx, job.ID, "queue unavailable", time.Now().UTC()); markErr != nil {
			s.logger.Warn("failed to mark unqueued report job", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report job")
	}

	s.logger.Info("report job queued",
		zap.String("job_id", job.ID),
		zap.String("type", reportType),
		zap.String("format", format))
	return job, nil
}

// Process is the queue handler: it renders the requested report and stores
// the file. Errors are returned so the queue can retry, except render
// failures of the final attempt which land in the job row via MarkFailed.
func (s *ReportService) Process(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok || jobID == "" {
		return fmt.Errorf("report job payload must be a job id")
	}

	record, err := s.reports.FindJobByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}
	if record.Status == models.ReportJobCompleted {
		return nil
	}
	if err := s.reports.MarkRunning(ctx, jobID); err != nil {
		return fmt.Errorf("mark report job running: %w", err)
	}

	data, err := s.render(ctx, record)
	if err != nil {
		if markErr := s.reports.MarkFailed(ctx, jobID, err.Error(), time.Now().UTC()); markErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(markErr))
		}
		return fmt.Errorf("render report %s: %w", jobID, err)
	}

	filename := fmt.Sprintf("%s/%s.%s", record.ReportType, record.ID, record.Format)
	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		if markErr := s.reports.MarkFailed(ctx, jobID, "failed to store report file", time.Now().UTC()); markErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(markErr))
		}
		return fmt.Errorf("store report %s: %w", jobID, err)
	}

	if err := s.reports.MarkCompleted(ctx, jobID, relPath, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark report job completed: %w", err)
	}

	s.logger.Info("report job completed", zap.String("job_id", jobID), zap.String("file", relPath))
	return nil
}

// Jobs returns recent report jobs, newest first.
func (s *ReportService) Jobs(ctx context.Context, limit int) ([]models.ReportJob, error) {
	items, err := s.reports.ListJobs(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return items, nil
}

// Job returns one report job by id.
func (s *ReportService) Job(ctx context.Context, id string) (*models.ReportJob, error) {
	record, err := s.reports.FindJobByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return record, nil
}

// SignedURL issues a download token for a completed report.
func (s *ReportService) SignedURL(ctx context.Context, id string) (*SignedDownload, error) {
	record, err := s.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != models.ReportJobCompleted || record.FilePath == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report is not ready")
	}
	token, expiresAt, err := s.signer.Generate(record.ID, *record.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &SignedDownload{Token: token, ExpiresAt: expiresAt}, nil
}

// Download resolves a signed token back to the stored file. The returned
// handle must be closed by the caller.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, *models.ReportJob, error) {
	reportID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	record, err := s.Job(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	if record.FilePath == nil || *record.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match the report")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file is gone")
	}
	return file, record, nil
}

func (s *ReportService) render(ctx context.Context, record *models.ReportJob) ([]byte, error) {
	var dataset export.Dataset
	var title string

	switch record.ReportType {
	case models.ReportTypeEnrollmentSummary:
		rows, err := s.reports.EnrollmentSummary(ctx)
		if err != nil {
			return nil, fmt.Errorf("query enrollment summary: %w", err)
		}
		dataset = enrollmentDataset(rows)
		title = "Enrollment Summary"
	case models.ReportTypeGradeSummary:
		rows, err := s.reports.GradeSummary(ctx)
		if err != nil {
			return nil, fmt.Errorf("query grade summary: %w", err)
		}
		dataset = gradeDataset(rows)
		title = "Grade Summary"
	default:
		return nil, fmt.Errorf("unknown report type %q", record.ReportType)
	}

	switch record.Format {
	case "csv":
		return s.csv.Render(dataset)
	case "pdf":
		return s.pdf.Render(dataset, title)
	default:
		return nil, fmt.Errorf("unknown report format %q", record.Format)
	}
}

func enrollmentDataset(rows []models.EnrollmentSummaryRow) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Course", "Section", "Semester", "Year", "Enrolled", "Capacity"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":   row.CourseCode,
			"Section":  row.SectionNumber,
			"Semester": row.Semester,
			"Year":     strconv.Itoa(row.Year),
			"Enrolled": strconv.Itoa(row.Enrolled),
			"Capacity": strconv.Itoa(row.Capacity),
		})
	}
	return dataset
}

func gradeDataset(rows []models.GradeSummaryRow) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Course", "Section", "Graded", "Pending", "Average Points"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":         row.CourseCode,
			"Section":        row.SectionNumber,
			"Graded":         strconv.Itoa(row.GradedCount),
			"Pending":        strconv.Itoa(row.PendingCount),
			"Average Points": strconv.FormatFloat(row.AveragePoints, 'f', 2, 64),
		})
	}
	return dataset
}
