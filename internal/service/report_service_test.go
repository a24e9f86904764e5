package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"anoa.com/reportdesk/internal/dto"
	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/pkg/apperror"
	"anoa.com/reportdesk/pkg/logging"
	"anoa.com/reportdesk/pkg/mailer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeReportRepo struct {
	reports   []*model.Report
	updateErr error
}

func (f *fakeReportRepo) Create(ctx context.Context, report *model.Report) error {
	if report.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		report.ID = id
	}
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeReportRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	for _, r := range f.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReportRepo) FindAll(ctx context.Context) ([]*model.Report, error) {
	return f.reports, nil
}

func (f *fakeReportRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Report, error) {
	var out []*model.Report
	for _, id := range ids {
		for _, r := range f.reports {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeReportRepo) Update(ctx context.Context, report *model.Report) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, r := range f.reports {
		if r.ID == report.ID {
			report.Version = r.Version + 1
			f.reports[i] = report
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeReportRepo) AppendFiles(ctx context.Context, reportID uuid.UUID, files []model.ReportFile) error {
	for _, r := range f.reports {
		if r.ID == reportID {
			r.Files = append(r.Files, files...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeReportRepo) seedReport(t *testing.T, owner *uuid.UUID, status string) *model.Report {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)

	r := &model.Report{
		ID:      id,
		UserID:  owner,
		Title:   "Quarterly summary",
		Content: "Numbers are up.",
		Status:  status,
	}
	f.reports = append(f.reports, r)
	return r
}

func newTestReportService(repo *fakeReportRepo) ReportService {
	return NewReportService(repo, nil, nil, nil, mailer.Noop{}, logging.Default())
}

func TestCreateReportStartsPendingAndOwned(t *testing.T) {
	repo := &fakeReportRepo{}
	s := newTestReportService(repo)
	author := regularTestUser()

	resp, err := s.Create(context.Background(), author, dto.CreateReportInput{
		Title:   "Incident writeup",
		Content: "Root cause pending.",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.ReportStatusPending, resp.Status)
	require.NotNil(t, resp.UserID)
	assert.Equal(t, author.ID, *resp.UserID)
	assert.Nil(t, resp.ApprovedAt)
}

func TestUpdateReportByNonOwnerForbidden(t *testing.T) {
	repo := &fakeReportRepo{}
	owner := regularTestUser()
	report := repo.seedReport(t, &owner.ID, model.ReportStatusPending)
	s := newTestReportService(repo)

	intruder := regularTestUser()
	_, err := s.Update(context.Background(), intruder, report.ID, dto.UpdateReportInput{
		Title: strPtr("Hijacked"),
	}, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, "Quarterly summary", report.Title)
}

func TestUpdateReportPartial(t *testing.T) {
	repo := &fakeReportRepo{}
	owner := regularTestUser()
	report := repo.seedReport(t, &owner.ID, model.ReportStatusPending)
	s := newTestReportService(repo)

	resp, err := s.Update(context.Background(), owner, report.ID, dto.UpdateReportInput{
		Title: strPtr("Quarterly summary v2"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Quarterly summary v2", resp.Title)
	assert.Equal(t, "Numbers are up.", resp.Content)
}

func TestUpdateApprovedReportRejected(t *testing.T) {
	repo := &fakeReportRepo{}
	owner := regularTestUser()
	report := repo.seedReport(t, &owner.ID, model.ReportStatusApproved)
	s := newTestReportService(repo)

	_, err := s.Update(context.Background(), owner, report.ID, dto.UpdateReportInput{
		Content: strPtr("Revised after the fact"),
	}, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

// When the version-checked write loses its race, no uploaded file may be
// stored for it.
func TestUpdateReportConflictStoresNoFiles(t *testing.T) {
	repo := &fakeReportRepo{}
	owner := regularTestUser()
	report := repo.seedReport(t, &owner.ID, model.ReportStatusPending)
	repo.updateErr = fmt.Errorf("%w: report was modified concurrently", apperror.ErrConflict)
	fs := &fakeFileStorage{}
	s := NewReportService(repo, fs, nil, nil, mailer.Noop{}, logging.Default())

	_, err := s.Update(context.Background(), owner, report.ID, dto.UpdateReportInput{
		Title: strPtr("Racing edit"),
	}, []*UploadFile{{
		Reader:   strings.NewReader("attachment"),
		FileName: "evidence.pdf",
	}})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Empty(t, fs.saves)
}

func TestApproveRecordsApproverAndTime(t *testing.T) {
	repo := &fakeReportRepo{}
	owner := regularTestUser()
	report := repo.seedReport(t, &owner.ID, model.ReportStatusPending)
	s := newTestReportService(repo)

	admin := adminTestUser()
	before := time.Now()
	resp, err := s.Approve(context.Background(), admin, report.ID)
	require.NoError(t, err)

	assert.Equal(t, model.ReportStatusApproved, resp.Status)
	require.NotNil(t, resp.ApprovedByID)
	assert.Equal(t, admin.ID, *resp.ApprovedByID)
	require.NotNil(t, resp.ApprovedAt)
	assert.False(t, resp.ApprovedAt.Before(before))
}

func TestApproveTwiceRejected(t *testing.T) {
	repo := &fakeReportRepo{}
	owner := regularTestUser()
	report := repo.seedReport(t, &owner.ID, model.ReportStatusApproved)
	s := newTestReportService(repo)

	_, err := s.Approve(context.Background(), adminTestUser(), report.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestApproveMissingReport(t *testing.T) {
	s := newTestReportService(&fakeReportRepo{})

	id, err := uuid.NewV7()
	require.NoError(t, err)
	_, err = s.Approve(context.Background(), adminTestUser(), id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSearchUnconfigured(t *testing.T) {
	s := newTestReportService(&fakeReportRepo{})

	_, err := s.Search(context.Background(), "summary")
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func regularTestUser() *model.User {
	return &model.User{
		ID:    uuid.New(),
		Email: "user@example.com",
		Name:  "Regular User",
		Role:  model.Role{Name: model.RoleRegular},
	}
}

func adminTestUser() *model.User {
	return &model.User{
		ID:    uuid.New(),
		Email: "admin@example.com",
		Name:  "Admin",
		Role:  model.Role{Name: model.RoleAdmin},
	}
}
