// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "staan/internal/delivery/context"
	"staan/internal/domain/entity"
	domainerrors "staan/internal/domain/errors"
	"staan/internal/domain/repository"
	"staan/internal/domain/service"
	"staan/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger
}

// UserServiceParams holds dependencies for userService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	SessionRepo  repository.SessionRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		sessionRepo:  params.SessionRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete registration process.
func (srv *userService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	// Hash outside the transaction (bcrypt is CPU-bound).
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	newUser := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		if err := srv.ensureIdentityAvailable(ctx, userRepo, input.Email, input.Username); err != nil {
			return err
		}

		if err := userRepo.Create(ctx, newUser); err != nil {
			return errors.Wrap(err, "failed to create user during registration")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return &usecase.RegisterOutput{User: newUser}, nil
}

// ensureIdentityAvailable rejects the registration when the email or
// username is already taken. The unique constraints remain the final
// guard against concurrent registrations.
func (srv *userService) ensureIdentityAvailable(ctx context.Context, userRepo repository.UserRepository, email, username string) error {
	if _, err := userRepo.FindByEmail(ctx, email); err == nil {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to check email availability")
	}

	if _, err := userRepo.FindByUsername(ctx, username); err == nil {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("username already taken")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to check username availability")
	}

	return nil
}

// Login orchestrates the login process. The identifier is matched
// against email first, then username; failures are uniform so callers
// cannot tell an unknown account from a wrong password.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("identifier", input.Identifier))

	user, err := srv.loadLoginUser(ctx, input.Identifier)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("identifier", input.Identifier), slog.Any("error", err))

		return nil, errors.Wrap(err, "login failed")
	}

	// Accounts provisioned through federated sign-in carry no password
	// hash and cannot log in with credentials.
	if !user.HasPassword() || !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("identifier", input.Identifier), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	return srv.openSession(ctx, user)
}

// loadLoginUser resolves the login identifier from the primary in a
// short transaction to avoid stale reads on replicas.
func (srv *userService) loadLoginUser(ctx context.Context, identifier string) (*entity.User, error) {
	var user *entity.User

	if err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		var findErr error
		user, findErr = userRepo.FindByEmail(ctx, identifier)
		if errors.Is(findErr, repository.ErrUserNotFound) {
			user, findErr = userRepo.FindByUsername(ctx, identifier)
		}
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidCredentials, "unknown login identifier")
			}

			return errors.Wrap(findErr, "failed to find user by identifier")
		}

		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "failed to execute login lookup transaction")
	}

	return user, nil
}

// openSession issues the bearer token and opens the server-side session
// backing the session cookie.
func (srv *userService) openSession(ctx context.Context, user *entity.User) (*usecase.LoginOutput, error) {
	token, err := srv.tokenService.Issue(user.ID)
	if err != nil {
		srv.log(ctx).Error("Failed to issue token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to issue bearer token")
	}

	session := &entity.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(entity.SessionTTL),
	}
	if err := srv.sessionRepo.Create(ctx, session); err != nil {
		srv.log(ctx).Error("Failed to create session", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create login session")
	}

	// Opportunistic housekeeping; a failure must not fail the login.
	if err := srv.sessionRepo.DeleteExpired(ctx); err != nil {
		srv.log(ctx).Warn("Failed to prune expired sessions", slog.Any("error", err))
	}

	srv.log(ctx).Debug("Logged in successfully", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{
		Token:   token,
		Session: session,
		User:    user,
	}, nil
}
