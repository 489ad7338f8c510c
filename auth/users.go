package auth

import (
	"context"
	"errors"
	"net/mail"

	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRepository is the account storage used by the auth endpoints.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByIdentity(ctx context.Context, identity string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}

type GormUsers struct {
	db *gorm.DB
}

func NewGormUsers(db *gorm.DB) *GormUsers {
	return &GormUsers{db: db}
}

func (u *GormUsers) Create(ctx context.Context, user *models.User) error {
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.New(apperror.Conflict, "users.create", err)
		}
		return apperror.New(apperror.PersistenceFailure, "users.create", err)
	}
	return nil
}

// FindByIdentity looks a user up by email or username. A missing user yields (nil, nil).
func (u *GormUsers) FindByIdentity(ctx context.Context, identity string) (*models.User, error) {
	column := "username = ?"
	if isEmail(identity) {
		column = "email = ?"
	}

	var user models.User
	if err := u.db.WithContext(ctx).Where(column, identity).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.New(apperror.PersistenceFailure, "users.find", err)
	}
	return &user, nil
}

// FindByID follows the same (nil, nil) convention for missing users.
func (u *GormUsers) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.New(apperror.PersistenceFailure, "users.find", err)
	}
	return &user, nil
}

func (u *GormUsers) Update(ctx context.Context, user *models.User) error {
	err := u.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"username":  user.Username,
		"full_name": user.FullName,
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.New(apperror.Conflict, "users.update", err)
		}
		return apperror.New(apperror.PersistenceFailure, "users.update", err)
	}
	return nil
}

func (u *GormUsers) Delete(ctx context.Context, id uint) error {
	if err := u.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return apperror.New(apperror.PersistenceFailure, "users.delete", err)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(hashed), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func isEmail(identity string) bool {
	_, err := mail.ParseAddress(identity)
	return err == nil
}
