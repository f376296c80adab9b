package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"account-ledger-service/internal/domain/user"
	apperrors "account-ledger-service/pkg/errors"
)

// UserRepoPG implements the user Repository interface using PostgreSQL and GORM.
type UserRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the usuarios table.
type UserSchema struct {
	ID      int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Nombre  string          `gorm:"column:nombre;not null"`
	Balance decimal.Decimal `gorm:"column:balance;type:numeric(14,2);not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "usuarios"
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:      m.ID,
		Nombre:  m.Nombre,
		Balance: m.Balance,
	}
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := UserSchema{
		Nombre:  u.Nombre,
		Balance: u.Balance,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("nombre", u.Nombre))
		return 0, apperrors.NewPersistenceError("failed to create user", err)
	}

	r.log.Debug("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// Update sets nombre and balance of the row matching u.ID and returns the
// number of affected rows.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	result := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"nombre":  u.Nombre,
			"balance": u.Balance,
		})
	if result.Error != nil {
		r.log.Error("failed to update user in db", zap.Error(result.Error), zap.Int64("id", u.ID))
		return 0, apperrors.NewPersistenceError("failed to update user", result.Error)
	}

	r.log.Debug("user updated in db", zap.Int64("id", u.ID), zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}

// Delete removes a user by ID and returns the number of affected rows.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if result.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(result.Error), zap.Int64("id", id))
		return 0, apperrors.NewPersistenceError("failed to delete user", result.Error)
	}

	r.log.Debug("user deleted in db", zap.Int64("id", id), zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("El usuario %d no existe", id))
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, apperrors.NewPersistenceError("failed to get user", err)
	}

	u := model.toDomain()
	return &u, nil
}

// List retrieves every user in database order.
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, apperrors.NewPersistenceError("failed to list users", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}

	return users, nil
}
