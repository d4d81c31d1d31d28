package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/query"
)

// FilePatch lists the attributes an update may change. Nil fields are left alone.
type FilePatch struct {
	Name       *string
	SharedWith []string
}

type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	FindByID(ctx context.Context, id string) (*model.File, error)
	Update(ctx context.Context, id string, patch FilePatch) (*model.File, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, preds []query.Predicate) (*model.FileList, error)
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(file).Error; err != nil {
		return fmt.Errorf("failed to create file record: %w", translate(err))
	}
	if file.SharedWith == nil {
		file.SharedWith = []string{}
	}
	return nil
}

func (r *fileRepository) FindByID(ctx context.Context, id string) (*model.File, error) {
	var file model.File
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Shares").
		First(&file, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find file %s: %w", id, translate(err))
	}
	return &file, nil
}

func (r *fileRepository) Update(ctx context.Context, id string, patch FilePatch) (*model.File, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"updated_at": time.Now()}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}

		res := tx.Model(&model.File{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if patch.SharedWith == nil {
			return nil
		}

		if err := tx.Where("file_id = ?", id).Delete(&model.FileShare{}).Error; err != nil {
			return err
		}
		if len(patch.SharedWith) == 0 {
			return nil
		}

		shares := make([]model.FileShare, 0, len(patch.SharedWith))
		for _, email := range patch.SharedWith {
			shares = append(shares, model.FileShare{FileID: id, Email: email})
		}
		return tx.Create(&shares).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update file %s: %w", id, translate(err))
	}

	return r.FindByID(ctx, id)
}

func (r *fileRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&model.FileShare{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&model.File{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", id, translate(err))
	}
	return nil
}

func (r *fileRepository) List(ctx context.Context, preds []query.Predicate) (*model.FileList, error) {
	c, err := compile(preds)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.File{}).Scopes(c.filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count files: %w", translate(err))
	}

	find := r.db.WithContext(ctx).Scopes(c.filter).Preload("Owner").Preload("Shares")
	for _, o := range c.orders {
		find = find.Order(o)
	}
	if c.limit > 0 {
		find = find.Limit(c.limit)
	}

	files := []model.File{}
	if err := find.Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list files: %w", translate(err))
	}

	return &model.FileList{Documents: files, Total: total}, nil
}
