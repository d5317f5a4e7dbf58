package posts

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a SQL-backed repository over the posts and animals tables.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreatePost(ctx context.Context, p *Post) (*Post, bool, error) {
	var (
		stored  Post
		existed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND image_url = ?", p.UserID, p.ImageURL).First(&stored).Error
		if err == nil {
			existed = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race with a concurrent insert of the same image.
			existed = true
			return tx.Where("user_id = ? AND image_url = ?", p.UserID, p.ImageURL).First(&stored).Error
		}
		stored = *p
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, existed, nil
}

func (r *gormRepository) GetPost(ctx context.Context, id string) (*Post, error) {
	var p Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost removes the post and its rows in the likes table.
func (r *gormRepository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Exec("DELETE FROM likes WHERE post_id = ?", id).Error
	})
}

func (r *gormRepository) Latest(ctx context.Context, limit int) ([]Post, error) {
	var rows []Post
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ByUser(ctx context.Context, userID string) ([]Post, error) {
	var rows []Post
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *gormRepository) All(ctx context.Context) ([]Post, error) {
	var rows []Post
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *gormRepository) UpsertAnimal(ctx context.Context, a *Animal) (*Animal, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "species"}},
		DoUpdates: clause.AssignmentColumns([]string{"common_names", "kingdom", "class", "fun_facts", "rarity_level"}),
	}).Create(a).Error
	if err != nil {
		return nil, err
	}
	var stored Animal
	if err := r.db.WithContext(ctx).Where("species = ?", a.Species).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *gormRepository) AnimalsByID(ctx context.Context, ids []string) (map[string]*Animal, error) {
	out := make(map[string]*Animal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Animal
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
