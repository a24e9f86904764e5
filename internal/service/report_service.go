package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/reportdesk/internal/ability"
	"anoa.com/reportdesk/internal/dto"
	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/internal/repository"
	"anoa.com/reportdesk/pkg/apperror"
	"anoa.com/reportdesk/pkg/logging"
	"anoa.com/reportdesk/pkg/mailer"
	"anoa.com/reportdesk/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportService interface {
	Create(ctx context.Context, user *model.User, input dto.CreateReportInput, files []*UploadFile) (*dto.ReportResponse, error)
	List(ctx context.Context) ([]*dto.ReportResponse, error)
	Update(ctx context.Context, user *model.User, id uuid.UUID, input dto.UpdateReportInput, files []*UploadFile) (*dto.ReportResponse, error)
	Approve(ctx context.Context, admin *model.User, id uuid.UUID) (*dto.ReportResponse, error)
	Search(ctx context.Context, query string) ([]*dto.ReportResponse, error)
}

type reportService struct {
	repo          repository.ReportRepository
	fileStorage   storage.FileStorage
	search        SearchService
	notifications NotificationService
	mail          mailer.Mailer
	log           logging.Logger
}

func NewReportService(
	repo repository.ReportRepository,
	fileStorage storage.FileStorage,
	search SearchService,
	notifications NotificationService,
	mail mailer.Mailer,
	log logging.Logger,
) ReportService {
	return &reportService{
		repo:          repo,
		fileStorage:   fileStorage,
		search:        search,
		notifications: notifications,
		mail:          mail,
		log:           log,
	}
}

func (s *reportService) Create(ctx context.Context, user *model.User, input dto.CreateReportInput, files []*UploadFile) (*dto.ReportResponse, error) {
	storedFiles, err := s.storeFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	report := &model.Report{
		UserID:  &user.ID,
		Title:   input.Title,
		Content: input.Content,
		Status:  model.ReportStatusPending,
		Files:   storedFiles,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		s.discardFiles(ctx, storedFiles)
		return nil, err
	}

	s.indexReport(ctx, report)

	return dto.NewReportResponse(report), nil
}

func (s *reportService) List(ctx context.Context) ([]*dto.ReportResponse, error) {
	reports, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewReportResponses(reports), nil
}

func (s *reportService) Update(ctx context.Context, user *model.User, id uuid.UUID, input dto.UpdateReportInput, files []*UploadFile) (*dto.ReportResponse, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: report", apperror.ErrNotFound)
		}
		return nil, err
	}

	abilities := ability.For(user)
	if !abilities.CanResource(ability.ActionUpdate, ability.SubjectReport, report) {
		return nil, fmt.Errorf("%w: cannot update this report", apperror.ErrForbidden)
	}

	// An approved report is an immutable record of what was approved.
	if report.Approved() {
		return nil, fmt.Errorf("%w: report is already approved", apperror.ErrConflict)
	}

	if input.Title != nil && *input.Title != "" {
		report.Title = *input.Title
	}
	if input.Content != nil && *input.Content != "" {
		report.Content = *input.Content
	}

	// The version-checked write goes first so a lost race leaves no
	// stored files behind.
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	storedFiles, err := s.storeFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendFiles(ctx, report.ID, storedFiles); err != nil {
		s.discardFiles(ctx, storedFiles)
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.indexReport(ctx, updated)

	return dto.NewReportResponse(updated), nil
}

// Approve transitions a pending report to approved and records who
// approved it and when. The transition is one-way; approving an
// already-approved report is rejected so the caller learns nothing
// changed.
func (s *reportService) Approve(ctx context.Context, admin *model.User, id uuid.UUID) (*dto.ReportResponse, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: report", apperror.ErrNotFound)
		}
		return nil, err
	}

	if report.Approved() {
		return nil, fmt.Errorf("%w: report is already approved", apperror.ErrConflict)
	}

	now := time.Now()
	report.Status = model.ReportStatusApproved
	report.ApprovedByID = &admin.ID
	report.ApprovedAt = &now

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	s.indexReport(ctx, report)
	s.notifyApproval(ctx, report, admin)

	return dto.NewReportResponse(report), nil
}

func (s *reportService) Search(ctx context.Context, query string) ([]*dto.ReportResponse, error) {
	if s.search == nil {
		return nil, fmt.Errorf("%w: search is not configured", apperror.ErrBadRequest)
	}

	ids, err := s.search.SearchReports(query)
	if err != nil {
		return nil, err
	}

	reports, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return dto.NewReportResponses(reports), nil
}

func (s *reportService) storeFiles(ctx context.Context, files []*UploadFile) ([]model.ReportFile, error) {
	var stored []model.ReportFile
	for _, f := range files {
		if f == nil || f.Reader == nil {
			continue
		}
		ref, err := s.fileStorage.Save(ctx, f.Reader, "report", f.FileName)
		if err != nil {
			if errors.Is(err, storage.ErrDisallowedType) {
				return nil, fmt.Errorf("%w: %v", apperror.ErrInvalidInput, err)
			}
			return nil, err
		}
		stored = append(stored, model.ReportFile{
			FileURL:  ref,
			FileName: f.FileName,
			FileType: f.ContentType,
		})
	}
	return stored, nil
}

// discardFiles best-effort removes files stored for a write that did not
// land.
func (s *reportService) discardFiles(ctx context.Context, files []model.ReportFile) {
	if s.fileStorage == nil {
		return
	}
	for _, f := range files {
		if err := s.fileStorage.Delete(ctx, f.FileURL); err != nil {
			s.log.Warn(ctx, "failed to remove orphaned file", "ref", f.FileURL, "error", err)
		}
	}
}

func (s *reportService) indexReport(ctx context.Context, report *model.Report) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexReport(report); err != nil {
		s.log.Warn(ctx, "failed to index report", "report_id", report.ID, "error", err)
	}
}

func (s *reportService) notifyApproval(ctx context.Context, report *model.Report, admin *model.User) {
	if s.notifications != nil {
		if err := s.notifications.NotifyReportApproved(ctx, report, admin); err != nil {
			s.log.Warn(ctx, "failed to create approval notification", "report_id", report.ID, "error", err)
		}
	}

	if report.User == nil {
		return
	}
	to := report.User.Email
	name := report.User.Name
	title := report.Title
	go func() {
		if err := s.mail.Send(context.Background(), to, "Report approved", "report-approved", map[string]string{
			"Name":  name,
			"Title": title,
		}); err != nil {
			s.log.Error(context.Background(), "failed to send approval mail", "email", to, "error", err)
		}
	}()
}
