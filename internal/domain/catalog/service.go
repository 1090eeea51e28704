package catalog

import (
	"context"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateLanguoid(ctx context.Context, l *Languoid) error {
	if err := validateCoords(l.Latitude, l.Longitude); err != nil {
		return err
	}
	return s.repo.CreateLanguoid(ctx, l)
}

func (s *Service) GetLanguoid(ctx context.Context, id int64) (*Languoid, error) {
	return s.repo.GetLanguoid(ctx, id)
}

func (s *Service) UpdateLanguoid(ctx context.Context, l *Languoid) error {
	if err := validateCoords(l.Latitude, l.Longitude); err != nil {
		return err
	}
	return s.repo.UpdateLanguoid(ctx, l)
}

func (s *Service) DeleteLanguoid(ctx context.Context, id int64) error {
	return s.repo.DeleteLanguoid(ctx, id)
}

func (s *Service) ListLanguoids(ctx context.Context, f LanguoidFilter) ([]Languoid, error) {
	return s.repo.ListLanguoids(ctx, f)
}

func (s *Service) CreateCollection(ctx context.Context, col *Collection) error {
	return s.repo.CreateCollection(ctx, col)
}

func (s *Service) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	return s.repo.GetCollection(ctx, id)
}

func (s *Service) UpdateCollection(ctx context.Context, col *Collection) error {
	return s.repo.UpdateCollection(ctx, col)
}

func (s *Service) DeleteCollection(ctx context.Context, id int64) error {
	return s.repo.DeleteCollection(ctx, id)
}

func (s *Service) ListCollections(ctx context.Context) ([]Collection, error) {
	return s.repo.ListCollections(ctx)
}

func (s *Service) CreateItem(ctx context.Context, it *Item) error {
	return s.repo.CreateItem(ctx, it)
}

func (s *Service) GetItem(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) GetItemByIdent(ctx context.Context, ident string) (*Item, error) {
	return s.repo.GetItemByIdent(ctx, ident)
}

func (s *Service) UpdateItem(ctx context.Context, it *Item) error {
	return s.repo.UpdateItem(ctx, it)
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.DeleteItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, f ItemFilter) ([]Item, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.repo.ListItems(ctx, f)
}

func (s *Service) SetItemLanguoids(ctx context.Context, itemID int64, languoidIDs []int64) error {
	return s.repo.SetItemLanguoids(ctx, itemID, languoidIDs)
}

func (s *Service) SetItemCollaborator(ctx context.Context, itemID, collaboratorID int64, role string) error {
	if role == "" {
		return ErrValidation
	}
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return err
	}
	if _, err := s.repo.GetCollaborator(ctx, collaboratorID); err != nil {
		return err
	}
	return s.repo.SetItemCollaborator(ctx, &ItemCollaborator{
		ItemID:         itemID,
		CollaboratorID: collaboratorID,
		Role:           role,
	})
}

func (s *Service) RemoveItemCollaborator(ctx context.Context, itemID, collaboratorID int64, role string) error {
	return s.repo.RemoveItemCollaborator(ctx, itemID, collaboratorID, role)
}

func (s *Service) ListItemCollaborators(ctx context.Context, itemID int64) ([]ItemCollaborator, error) {
	return s.repo.ListItemCollaborators(ctx, itemID)
}

func (s *Service) CreateCollaborator(ctx context.Context, col *Collaborator) error {
	return s.repo.CreateCollaborator(ctx, col)
}

func (s *Service) GetCollaborator(ctx context.Context, id int64) (*Collaborator, error) {
	return s.repo.GetCollaborator(ctx, id)
}

func (s *Service) UpdateCollaborator(ctx context.Context, col *Collaborator) error {
	return s.repo.UpdateCollaborator(ctx, col)
}

func (s *Service) DeleteCollaborator(ctx context.Context, id int64) error {
	return s.repo.DeleteCollaborator(ctx, id)
}

func (s *Service) ListCollaborators(ctx context.Context) ([]Collaborator, error) {
	return s.repo.ListCollaborators(ctx)
}

func validateCoords(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return ErrValidation
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		return ErrValidation
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		return ErrValidation
	}
	return nil
}
