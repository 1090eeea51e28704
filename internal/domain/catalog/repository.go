package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type LanguoidFilter struct {
	Level      LanguoidLevel
	NamePrefix string
}

type ItemFilter struct {
	CollectionID *int64
	LanguoidID   *int64
	TitleQuery   string
	Limit        int
	Offset       int
}

// BoundingBox is a map viewport. MinLon > MaxLon means the box crosses the
// antimeridian and must be split into two longitude ranges.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

type Repository interface {
	// Languoids
	CreateLanguoid(ctx context.Context, l *Languoid) error
	GetLanguoid(ctx context.Context, id int64) (*Languoid, error)
	UpdateLanguoid(ctx context.Context, l *Languoid) error
	DeleteLanguoid(ctx context.Context, id int64) error
	ListLanguoids(ctx context.Context, f LanguoidFilter) ([]Languoid, error)
	ListLanguoidsInBox(ctx context.Context, box BoundingBox) ([]Languoid, error)

	// Collections
	CreateCollection(ctx context.Context, col *Collection) error
	GetCollection(ctx context.Context, id int64) (*Collection, error)
	UpdateCollection(ctx context.Context, col *Collection) error
	DeleteCollection(ctx context.Context, id int64) error
	ListCollections(ctx context.Context) ([]Collection, error)

	// Items
	CreateItem(ctx context.Context, it *Item) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	GetItemByIdent(ctx context.Context, ident string) (*Item, error)
	UpdateItem(ctx context.Context, it *Item) error
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context, f ItemFilter) ([]Item, error)
	SetItemLanguoids(ctx context.Context, itemID int64, languoidIDs []int64) error
	SetItemCollaborator(ctx context.Context, link *ItemCollaborator) error
	RemoveItemCollaborator(ctx context.Context, itemID, collaboratorID int64, role string) error
	ListItemCollaborators(ctx context.Context, itemID int64) ([]ItemCollaborator, error)

	// Collaborators
	CreateCollaborator(ctx context.Context, col *Collaborator) error
	GetCollaborator(ctx context.Context, id int64) (*Collaborator, error)
	UpdateCollaborator(ctx context.Context, col *Collaborator) error
	DeleteCollaborator(ctx context.Context, id int64) error
	ListCollaborators(ctx context.Context) ([]Collaborator, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateLanguoid(ctx context.Context, l *Languoid) error {
	err := r.db.WithContext(ctx).Create(l).Error
	if isUniqueViolation(err) {
		return ErrIdentTaken
	}
	return err
}

func (r *repository) GetLanguoid(ctx context.Context, id int64) (*Languoid, error) {
	var l Languoid
	err := r.db.WithContext(ctx).First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLanguoidNotFound
	}
	return &l, err
}

func (r *repository) UpdateLanguoid(ctx context.Context, l *Languoid) error {
	res := r.db.WithContext(ctx).Model(&Languoid{}).Where("id = ?", l.ID).Updates(map[string]any{
		"code":      l.Code,
		"name":      l.Name,
		"level":     l.Level,
		"latitude":  l.Latitude,
		"longitude": l.Longitude,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrIdentTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLanguoidNotFound
	}
	return nil
}

func (r *repository) DeleteLanguoid(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Languoid{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLanguoidNotFound
	}
	return nil
}

func (r *repository) ListLanguoids(ctx context.Context, f LanguoidFilter) ([]Languoid, error) {
	q := r.db.WithContext(ctx).Model(&Languoid{}).Order("name")
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.NamePrefix != "" {
		q = q.Where("name LIKE ?", f.NamePrefix+"%")
	}

	var out []Languoid
	err := q.Find(&out).Error
	return out, err
}

// ListLanguoidsInBox returns languoids with coordinates inside the viewport,
// ordered by id so density sampling upstream is deterministic.
func (r *repository) ListLanguoidsInBox(ctx context.Context, box BoundingBox) ([]Languoid, error) {
	q := r.db.WithContext(ctx).Model(&Languoid{}).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)

	if box.MinLon <= box.MaxLon {
		q = q.Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon)
	} else {
		// Viewport wraps the antimeridian.
		q = q.Where("longitude >= ? OR longitude <= ?", box.MinLon, box.MaxLon)
	}

	var out []Languoid
	err := q.Order("id").Find(&out).Error
	return out, err
}

func (r *repository) CreateCollection(ctx context.Context, col *Collection) error {
	err := r.db.WithContext(ctx).Create(col).Error
	if isUniqueViolation(err) {
		return ErrIdentTaken
	}
	return err
}

func (r *repository) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	var col Collection
	err := r.db.WithContext(ctx).First(&col, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCollectionNotFound
	}
	return &col, err
}

func (r *repository) UpdateCollection(ctx context.Context, col *Collection) error {
	res := r.db.WithContext(ctx).Model(&Collection{}).Where("id = ?", col.ID).Updates(map[string]any{
		"slug":        col.Slug,
		"title":       col.Title,
		"description": col.Description,
		"curator_id":  col.CuratorID,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrIdentTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

func (r *repository) DeleteCollection(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Collection{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

func (r *repository) ListCollections(ctx context.Context) ([]Collection, error) {
	var out []Collection
	err := r.db.WithContext(ctx).Order("title").Find(&out).Error
	return out, err
}

func (r *repository) CreateItem(ctx context.Context, it *Item) error {
	err := r.db.WithContext(ctx).Create(it).Error
	if isUniqueViolation(err) {
		return ErrIdentTaken
	}
	return err
}

func (r *repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	var it Item
	err := r.db.WithContext(ctx).Preload("Languoids").First(&it, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	return &it, err
}

func (r *repository) GetItemByIdent(ctx context.Context, ident string) (*Item, error) {
	var it Item
	err := r.db.WithContext(ctx).Preload("Languoids").Where("ident = ?", ident).First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	return &it, err
}

func (r *repository) UpdateItem(ctx context.Context, it *Item) error {
	res := r.db.WithContext(ctx).Model(&Item{}).Where("id = ?", it.ID).Updates(map[string]any{
		"ident":         it.Ident,
		"title":         it.Title,
		"description":   it.Description,
		"collection_id": it.CollectionID,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrIdentTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&ItemCollaborator{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM item_languoids WHERE item_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&Item{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

func (r *repository) ListItems(ctx context.Context, f ItemFilter) ([]Item, error) {
	q := r.db.WithContext(ctx).Model(&Item{}).Preload("Languoids").Order("ident")
	if f.CollectionID != nil {
		q = q.Where("collection_id = ?", *f.CollectionID)
	}
	if f.LanguoidID != nil {
		q = q.Where("id IN (SELECT item_id FROM item_languoids WHERE languoid_id = ?)", *f.LanguoidID)
	}
	if f.TitleQuery != "" {
		q = q.Where("title LIKE ?", "%"+f.TitleQuery+"%")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []Item
	err := q.Find(&out).Error
	return out, err
}

// SetItemLanguoids replaces the item's languoid set and keeps the cached
// item counters in step, all in one transaction.
func (r *repository) SetItemLanguoids(ctx context.Context, itemID int64, languoidIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it Item
		if err := tx.First(&it, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		if err := tx.Exec("DELETE FROM item_languoids WHERE item_id = ?", itemID).Error; err != nil {
			return err
		}
		for _, lid := range languoidIDs {
			if err := tx.Exec("INSERT INTO item_languoids (item_id, languoid_id) VALUES (?, ?)", itemID, lid).Error; err != nil {
				return err
			}
		}

		return tx.Exec(
			"UPDATE languoids SET item_count = (SELECT COUNT(*) FROM item_languoids WHERE languoid_id = languoids.id)",
		).Error
	})
}

func (r *repository) SetItemCollaborator(ctx context.Context, link *ItemCollaborator) error {
	err := r.db.WithContext(ctx).Create(link).Error
	if isUniqueViolation(err) {
		// Already linked with this role, treat as a no-op.
		return nil
	}
	return err
}

func (r *repository) RemoveItemCollaborator(ctx context.Context, itemID, collaboratorID int64, role string) error {
	return r.db.WithContext(ctx).
		Where("item_id = ? AND collaborator_id = ? AND role = ?", itemID, collaboratorID, role).
		Delete(&ItemCollaborator{}).Error
}

func (r *repository) ListItemCollaborators(ctx context.Context, itemID int64) ([]ItemCollaborator, error) {
	var out []ItemCollaborator
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Find(&out).Error
	return out, err
}

func (r *repository) CreateCollaborator(ctx context.Context, col *Collaborator) error {
	return r.db.WithContext(ctx).Create(col).Error
}

func (r *repository) GetCollaborator(ctx context.Context, id int64) (*Collaborator, error) {
	var col Collaborator
	err := r.db.WithContext(ctx).First(&col, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCollaboratorNotFound
	}
	return &col, err
}

func (r *repository) UpdateCollaborator(ctx context.Context, col *Collaborator) error {
	res := r.db.WithContext(ctx).Model(&Collaborator{}).Where("id = ?", col.ID).Updates(map[string]any{
		"name":      col.Name,
		"email":     col.Email,
		"anonymous": col.Anonymous,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCollaboratorNotFound
	}
	return nil
}

// DeleteCollaborator detaches the collaborator from all items first; items
// themselves are never deleted here.
func (r *repository) DeleteCollaborator(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collaborator_id = ?", id).Delete(&ItemCollaborator{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Collaborator{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCollaboratorNotFound
		}
		return nil
	})
}

func (r *repository) ListCollaborators(ctx context.Context) ([]Collaborator, error) {
	var out []Collaborator
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
