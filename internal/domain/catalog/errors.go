package catalog

import "errors"

var (
	ErrLanguoidNotFound     = errors.New("languoid not found")
	ErrCollectionNotFound   = errors.New("collection not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrCollaboratorNotFound = errors.New("collaborator not found")
	ErrIdentTaken           = errors.New("identifier is already in use")
	ErrValidation           = errors.New("validation failed")
	ErrInvalidBoundingBox   = errors.New("invalid bounding box")
)
