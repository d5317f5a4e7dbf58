package likes

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Toggle(ctx context.Context, postID, userID string, now time.Time) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		liked = true
		return tx.Create(&Like{PostID: postID, UserID: userID, CreatedAt: now}).Error
	})
	return liked, err
}

func (r *gormRepository) Count(ctx context.Context, postID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Like{}).Where("post_id = ?", postID).Count(&n).Error
	return int(n), err
}

func (r *gormRepository) Exists(ctx context.Context, postID, userID string) (bool, error) {
	var l Like
	err := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *gormRepository) List(ctx context.Context, postID string) ([]Like, error) {
	var rows []Like
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}
