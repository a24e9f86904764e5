package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"anoa.com/reportdesk/internal/dto"
	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/internal/repository"
	"anoa.com/reportdesk/pkg/apperror"
	"anoa.com/reportdesk/pkg/logging"
	"anoa.com/reportdesk/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UploadFile represents an uploaded file handed down from the transport
// layer.
type UploadFile struct {
	Reader      io.Reader
	FileName    string
	ContentType string
}

type UserService interface {
	List(ctx context.Context) ([]*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, input dto.UpdateProfileInput, file *UploadFile) (*dto.UserResponse, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	repo        repository.UserRepository
	reportRepo  repository.ReportRepository
	fileStorage storage.FileStorage
	search      SearchService
	log         logging.Logger
}

func NewUserService(
	repo repository.UserRepository,
	reportRepo repository.ReportRepository,
	fileStorage storage.FileStorage,
	search SearchService,
	log logging.Logger,
) UserService {
	return &userService{
		repo:        repo,
		reportRepo:  reportRepo,
		fileStorage: fileStorage,
		search:      search,
		log:         log,
	}
}

func (s *userService) List(ctx context.Context) ([]*dto.UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, dto.NewUserResponse(u))
	}

	return response, nil
}

// UpdateProfile applies a patch to the user: a field is replaced only when
// it is present and non-empty, so absent fields keep their stored values
// and nothing can be cleared to empty here. The report link is resolved
// before the version-checked user write and persisted only after it
// succeeds, and a freshly stored picture is removed again when that write
// fails, so a lost race leaves no partial side effects behind.
func (s *userService) UpdateProfile(ctx context.Context, userID string, input dto.UpdateProfileInput, file *UploadFile) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", apperror.ErrNotFound)
		}
		return nil, err
	}

	if input.Email != nil && *input.Email != "" && *input.Email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, *input.Email); err == nil {
			return nil, fmt.Errorf("%w: email already registered", apperror.ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = *input.Email
	}

	if input.Name != nil && *input.Name != "" {
		user.Name = *input.Name
	}

	if input.Password != nil && *input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	var linked *model.Report
	if input.Report != nil && *input.Report != "" {
		linked, err = s.resolveReportLink(ctx, user, *input.Report)
		if err != nil {
			return nil, err
		}
	}

	oldPic := user.PicURL
	var newPic string
	if file != nil && file.Reader != nil && s.fileStorage != nil {
		ref, err := s.fileStorage.Save(ctx, file.Reader, "user", file.FileName)
		if err != nil {
			if errors.Is(err, storage.ErrDisallowedType) {
				return nil, fmt.Errorf("%w: %v", apperror.ErrInvalidInput, err)
			}
			return nil, err
		}
		newPic = ref
		user.PicURL = &ref
	}

	if err := s.repo.Update(ctx, user); err != nil {
		s.removeStoredFile(ctx, newPic)
		return nil, err
	}

	if linked != nil {
		linked.UserID = &user.ID
		if err := s.reportRepo.Update(ctx, linked); err != nil {
			return nil, err
		}
	}

	if newPic != "" && oldPic != nil && *oldPic != newPic {
		s.removeStoredFile(ctx, *oldPic)
	}

	updatedUser, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponse(updatedUser), nil
}

// resolveReportLink validates a report link without persisting it. Linking
// is additive: reports already owned by the user are left alone (nil
// return), and reports owned by somebody else cannot be taken over.
func (s *userService) resolveReportLink(ctx context.Context, user *model.User, reportID string) (*model.Report, error) {
	id, err := uuid.Parse(reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid report id", apperror.ErrInvalidInput)
	}

	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: report", apperror.ErrNotFound)
		}
		return nil, err
	}

	if report.UserID != nil {
		if *report.UserID == user.ID {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: report belongs to another user", apperror.ErrForbidden)
	}

	return report, nil
}

func (s *userService) removeStoredFile(ctx context.Context, ref string) {
	if ref == "" || s.fileStorage == nil {
		return
	}
	if err := s.fileStorage.Delete(ctx, ref); err != nil {
		s.log.Warn(ctx, "failed to remove stored file", "ref", ref, "error", err)
	}
}

// Delete removes the user after detaching every report they own; the
// detach and the delete commit or fail together. The detached reports are
// then re-indexed so search stops attributing them to the removed user.
func (s *userService) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", apperror.ErrInvalidInput)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user", apperror.ErrNotFound)
		}
		return err
	}

	if err := s.repo.DeleteWithDetach(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user", apperror.ErrNotFound)
		}
		return err
	}

	if s.search != nil {
		for i := range user.Reports {
			detached := user.Reports[i]
			detached.UserID = nil
			if err := s.search.IndexReport(&detached); err != nil {
				s.log.Warn(ctx, "failed to reindex detached report", "report_id", detached.ID, "error", err)
			}
		}
	}

	return nil
}
