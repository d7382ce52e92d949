package dao

import (
	"context"
	"errors"
	"time"

	"rebelchat/rebelchat/sources/psql/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) first(ctx context.Context, db *gorm.DB, query string, arg any) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (dao *UserDAO) GetUser(ctx context.Context, id string) (*models.User, error) {
	return dao.first(ctx, dao.DB, "id = ?", id)
}

func (dao *UserDAO) GetUserByCognitoSub(ctx context.Context, sub string) (*models.User, error) {
	return dao.first(ctx, dao.DB, "cognito_sub = ?", sub)
}

func (dao *UserDAO) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return dao.first(ctx, dao.DB, "email = ?", email)
}

func (dao *UserDAO) CreateUser(ctx context.Context, in models.InsertUser) (*models.User, error) {
	user := models.User{
		CognitoSub: in.CognitoSub,
		Email:      in.Email,
		Name:       in.Name,
		LastLogin:  time.Now(),
	}
	if err := dao.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser refreshes the row for in.CognitoSub or creates it. The insert
// and the update are one INSERT ... ON CONFLICT (cognito_sub) statement so
// concurrent first sign-ins for the same sub never collide on the index.
func (dao *UserDAO) UpsertUser(ctx context.Context, in models.InsertUser) (*models.User, error) {
	var out *models.User
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{
			CognitoSub: in.CognitoSub,
			Email:      in.Email,
			Name:       in.Name,
			LastLogin:  time.Now(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cognito_sub"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "last_login"}),
		}).Create(&user).Error
		if err != nil {
			return err
		}
		// on conflict the row keeps its original id
		out, err = dao.first(ctx, tx, "cognito_sub = ?", in.CognitoSub)
		if err != nil {
			return err
		}
		if out == nil {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (dao *UserDAO) UpdateUserLastLogin(ctx context.Context, sub string) error {
	return dao.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("cognito_sub = ?", sub).
		Update("last_login", time.Now()).Error
}
