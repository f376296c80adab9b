package user

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "account-ledger-service/internal/domain/user"
	apperrors "account-ledger-service/pkg/errors"
	"account-ledger-service/pkg/logger"
)

// Messages returned to callers when an error is raised explicitly.
const (
	MsgInvalidUpdate = "Datos de actualización incompletos o inválidos"
	MsgNotUpdated    = "El usuario no fue encontrado o no se pudo actualizar"
	MsgInvalidID     = "El id de usuario no es válido"
	MsgBalanceScale  = "El balance admite como máximo dos decimales"
)

// Repository defines the interface for user data access operations.
// Implementations return *apperrors.PersistenceError for database failures
// and *apperrors.NotFoundError from GetByID when no row matches.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)   // Create a new user, returns its id
	GetByID(ctx context.Context, id int64) (*domain.User, error) // Retrieve user by ID
	Update(ctx context.Context, u *domain.User) (int64, error)   // Update nombre and balance, returns affected rows
	Delete(ctx context.Context, id int64) (int64, error)         // Delete user by ID, returns affected rows
	List(ctx context.Context) ([]domain.User, error)             // List every user in database order
}

// Usecase implements the business logic for user management operations.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validate: validator.New()}
}

// CreateUser inserts a new user. Only the balance scale is checked; other
// values are stored as received.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("nombre", in.Nombre), zap.Stringer("balance", in.Balance))

	if !domain.FitsScale(in.Balance) {
		log.Warn("create user validation failed", zap.String("reason", "balance scale"))
		return nil, apperrors.NewValidationError("balance", MsgBalanceScale)
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		Nombre:  in.Nombre,
		Balance: in.Balance,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}
	return &CreateUserResponse{ID: id}, nil
}

// UpdateUser replaces nombre and balance of the user identified by in.ID.
// Anything other than exactly one affected row is reported as not found.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.Int64("id", in.ID), zap.String("nombre", in.Nombre))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, apperrors.NewValidationError(validationField(err), MsgInvalidUpdate)
	}
	if !domain.FitsScale(*in.Balance) {
		log.Warn("update user validation failed", zap.String("reason", "balance scale"))
		return nil, apperrors.NewValidationError("balance", MsgBalanceScale)
	}

	rows, err := uc.repo.Update(ctx, &domain.User{
		ID:      in.ID,
		Nombre:  in.Nombre,
		Balance: *in.Balance,
	})
	if err != nil {
		log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	if rows != 1 {
		log.Warn("update affected unexpected row count", zap.Int64("id", in.ID), zap.Int64("rows", rows))
		return nil, apperrors.NewNotFoundError("user", MsgNotUpdated)
	}

	return &UpdateUserResponse{ID: in.ID}, nil
}

// DeleteUser deletes the user identified by in.ID. Deleting an unknown id
// is not an error.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	rows, err := uc.repo.Delete(ctx, in.ID)
	if err != nil {
		log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	if rows == 0 {
		log.Debug("delete matched no user", zap.Int64("id", in.ID))
	}

	return &DeleteUserResponse{ID: in.ID, Deleted: rows}, nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if in.ID <= 0 {
		log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, apperrors.NewValidationError("id", MsgInvalidID)
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		var nf *apperrors.NotFoundError
		if errors.As(err, &nf) {
			log.Warn("user not found", zap.Int64("id", in.ID))
		} else {
			log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		}
		return nil, err
	}

	return &GetUserResponse{
		ID:      u.ID,
		Nombre:  u.Nombre,
		Balance: u.Balance,
	}, nil
}

// ListUsers retrieves every user.
func (uc *Usecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	domainUsers, err := uc.repo.List(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = User{
			ID:      du.ID,
			Nombre:  du.Nombre,
			Balance: du.Balance,
		}
	}

	return &ListUsersResponse{Users: users}, nil
}

// validationField returns the first failing field of a validator error.
func validationField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}
