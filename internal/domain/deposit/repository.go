package deposit

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, d *Deposit) error
	GetByID(ctx context.Context, id int64) (*Deposit, error)
	ListByOwner(ctx context.Context, userID int64) ([]Deposit, error)
	CountDraftsByOwner(ctx context.Context, userID int64) (int64, error)
	ListForReviewer(ctx context.Context, userID int64) ([]Deposit, error)
	AddInvolvedUser(ctx context.Context, depositID, userID int64) error
	RemoveInvolvedUser(ctx context.Context, depositID, userID int64) error
	InvolvedUserIDs(ctx context.Context, depositID int64) ([]int64, error)
	ListEvents(ctx context.Context, depositID int64) ([]DepositEvent, error)

	CreateFile(ctx context.Context, f *DepositFile) error
	GetFile(ctx context.Context, id string) (*DepositFile, error)
	DeleteFile(ctx context.Context, id string) error
	ListFiles(ctx context.Context, depositID int64) ([]DepositFile, error)
	ReplaceMetadataFile(ctx context.Context, depositID int64, f *DepositFile) ([]DepositFile, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *Deposit) error {
	d.State = StateDraft
	d.IsDraft = true
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Deposit, error) {
	var d Deposit
	err := r.db.WithContext(ctx).Preload("Files").First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDepositNotFound
	}
	return &d, err
}

func (r *repository) ListByOwner(ctx context.Context, userID int64) ([]Deposit, error) {
	var out []Deposit
	err := r.db.WithContext(ctx).
		Where("draft_user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) CountDraftsByOwner(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Deposit{}).
		Where("draft_user_id = ? AND is_draft = ?", userID, true).
		Count(&n).Error
	return n, err
}

// ListForReviewer returns deposits awaiting the reviewer's attention.
func (r *repository) ListForReviewer(ctx context.Context, userID int64) ([]Deposit, error) {
	var out []Deposit
	err := r.db.WithContext(ctx).
		Where("state = ?", StateReview).
		Where("id IN (SELECT deposit_id FROM deposit_involved_users WHERE user_id = ?)", userID).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (r *repository) AddInvolvedUser(ctx context.Context, depositID, userID int64) error {
	err := r.db.WithContext(ctx).Create(&InvolvedUser{DepositID: depositID, UserID: userID}).Error
	if err != nil && isDuplicateKey(err) {
		return nil
	}
	return err
}

func (r *repository) RemoveInvolvedUser(ctx context.Context, depositID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("deposit_id = ? AND user_id = ?", depositID, userID).
		Delete(&InvolvedUser{}).Error
}

func (r *repository) InvolvedUserIDs(ctx context.Context, depositID int64) ([]int64, error) {
	return involvedUserIDs(r.db.WithContext(ctx), depositID)
}

func (r *repository) ListEvents(ctx context.Context, depositID int64) ([]DepositEvent, error) {
	var out []DepositEvent
	err := r.db.WithContext(ctx).
		Where("deposit_id = ?", depositID).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (r *repository) CreateFile(ctx context.Context, f *DepositFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *repository) GetFile(ctx context.Context, id string) (*DepositFile, error) {
	var f DepositFile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	return &f, err
}

func (r *repository) DeleteFile(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&DepositFile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

func (r *repository) ListFiles(ctx context.Context, depositID int64) ([]DepositFile, error) {
	var out []DepositFile
	err := r.db.WithContext(ctx).
		Where("deposit_id = ?", depositID).
		Order("created_at").
		Find(&out).Error
	return out, err
}

// ReplaceMetadataFile inserts f flagged as the metadata file and removes any
// previous metadata file rows of the deposit in the same transaction. The
// superseded rows are returned so the caller can remove them from disk.
func (r *repository) ReplaceMetadataFile(ctx context.Context, depositID int64, f *DepositFile) ([]DepositFile, error) {
	var superseded []DepositFile

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("deposit_id = ? AND is_metadata_file = ?", depositID, true).
			Find(&superseded).Error; err != nil {
			return err
		}

		if len(superseded) > 0 {
			if err := tx.
				Where("deposit_id = ? AND is_metadata_file = ?", depositID, true).
				Delete(&DepositFile{}).Error; err != nil {
				return err
			}
		}

		f.IsMetadataFile = true
		return tx.Create(f).Error
	})
	if err != nil {
		return nil, err
	}
	return superseded, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
