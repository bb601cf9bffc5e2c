package postgres

import (
	"context"

	"staan/internal/domain/entity"
	domainerrors "staan/internal/domain/errors"
	"staan/internal/domain/repository"
	"staan/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain's UserRepository interface.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a user by primary key.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(ctx, "id = ?", id)
}

// FindByEmail retrieves a user by email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, "email = ?", email)
}

// FindByUsername retrieves a user by username.
func (repo *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return repo.findOne(ctx, "username = ?", username)
}

func (repo *userRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where(query, arg).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toUserDomain(&userM), nil
}

// Create inserts a new user and backfills generated values.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("username or email already taken")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required user information")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	// Update the entity with generated values
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update persists identity fields of an existing user.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	updates := map[string]any{
		"username": user.Username,
		"email":    user.Email,
	}
	if user.PasswordHash != "" {
		updates["password_hash"] = user.PasswordHash
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Updates(updates)
	if err := result.Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("username or email already taken")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// UpdateConnection replaces the stored platform credentials in a single write.
func (repo *userRepository) UpdateConnection(ctx context.Context, userID uuid.UUID, conn *entity.PlatformConnection) error {
	expiresAt := conn.ExpiresAt
	updates := map[string]any{
		"access_token":       conn.AccessToken,
		"refresh_token":      conn.RefreshToken,
		"token_expires_at":   &expiresAt,
		"platform_connected": string(conn.Platform),
		"is_connected":       conn.Connected,
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userID).
		Updates(updates)
	if err := result.Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to update platform connection")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	user := &entity.User{
		ID:        data.ID,
		Username:  data.Username,
		Email:     data.Email,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
	if data.PasswordHash != nil {
		user.PasswordHash = *data.PasswordHash
	}

	if data.PlatformConnected != "" || data.IsConnected {
		conn := &entity.PlatformConnection{
			AccessToken:  data.AccessToken,
			RefreshToken: data.RefreshToken,
			Platform:     entity.Platform(data.PlatformConnected),
			Connected:    data.IsConnected,
		}
		if data.TokenExpiresAt != nil {
			conn.ExpiresAt = *data.TokenExpiresAt
		}
		user.Connection = conn
	}

	return user
}

// fromUserDomain converts a domain User entity to a GORM UserModel.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	userM := &model.UserModel{
		ID:       data.ID,
		Username: data.Username,
		Email:    data.Email,
	}
	if data.PasswordHash != "" {
		hash := data.PasswordHash
		userM.PasswordHash = &hash
	}

	if conn := data.Connection; conn != nil {
		userM.AccessToken = conn.AccessToken
		userM.RefreshToken = conn.RefreshToken
		userM.PlatformConnected = string(conn.Platform)
		userM.IsConnected = conn.Connected
		if !conn.ExpiresAt.IsZero() {
			expiresAt := conn.ExpiresAt
			userM.TokenExpiresAt = &expiresAt
		}
	}

	return userM
}
