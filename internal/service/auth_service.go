package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"anoa.com/reportdesk/internal/dto"
	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/internal/repository"
	"anoa.com/reportdesk/pkg/apperror"
	"anoa.com/reportdesk/pkg/logging"
	"anoa.com/reportdesk/pkg/mailer"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthResponse, error)
	Signin(ctx context.Context, input dto.SigninInput) (*dto.AuthResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	mail     mailer.Mailer
	rdb      *redis.Client
	log      logging.Logger
	secret   string
	tokenTTL time.Duration
	// dummyHash absorbs one bcrypt comparison when the account does not
	// exist, so a signin against an unknown email costs the same as one
	// against a wrong password.
	dummyHash []byte
}

func NewAuthService(repo repository.UserRepository, mail mailer.Mailer, rdb *redis.Client, log logging.Logger) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on invalid cost, which DefaultCost is not.
		panic(err)
	}

	return &authService{
		repo:      repo,
		mail:      mail,
		rdb:       rdb,
		log:       log,
		secret:    secret,
		tokenTTL:  ttl,
		dummyHash: dummyHash,
	}
}

func (s *authService) Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: user already exists", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role, err := s.repo.FindRoleByName(ctx, model.RoleRegular)
	if err != nil {
		return nil, fmt.Errorf("role %s not found: %w", model.RoleRegular, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	roleID := role.ID
	user := &model.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hashedPassword),
		RoleID:       &roleID,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// A concurrent signup can slip past the lookup above and lose the
		// race at the unique index; that is still a duplicate account.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: user already exists", apperror.ErrConflict)
		}
		return nil, err
	}

	createdUser, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	// Delivery is fire-and-forget: a mailer failure never rolls back the
	// account and is never surfaced to the caller.
	go func() {
		if err := s.mail.Send(context.Background(), createdUser.Email, "User Signed Up!!", "signup", map[string]string{
			"Name": createdUser.Name,
		}); err != nil {
			s.log.Error(context.Background(), "failed to send signup mail", "email", createdUser.Email, "error", err)
		}
	}()

	return s.buildAuthResponse(createdUser)
}

func (s *authService) Signin(ctx context.Context, input dto.SigninInput) (*dto.AuthResponse, error) {
	locked, err := SigninLocked(ctx, s.rdb, input.Email)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, fmt.Errorf("%w: too many failed signin attempts", apperror.ErrRateLimitExceeded)
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Still pay for a hash comparison.
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
			return nil, s.failSignin(ctx, input.Email)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, s.failSignin(ctx, input.Email)
	}

	if err := ClearSigninFailures(ctx, s.rdb, input.Email); err != nil {
		s.log.Warn(ctx, "failed to clear signin failures", "error", err)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) failSignin(ctx context.Context, email string) error {
	if err := RecordSigninFailure(ctx, s.rdb, email); err != nil {
		s.log.Warn(ctx, "failed to record signin failure", "error", err)
	}
	return fmt.Errorf("%w: invalid email or password", apperror.ErrUnauthorized)
}

func (s *authService) buildAuthResponse(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		User:  dto.NewUserResponse(user),
		Token: token,
	}, nil
}

// generateToken mints an HS256 token whose subject is the account email.
// Minting is a pure function of (subject, secret, ttl); there is no
// server-side session table and no revocation list.
func (s *authService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Email,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
