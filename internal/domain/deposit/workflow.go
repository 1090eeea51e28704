package deposit

import (
	"context"
	"errors"
	"fmt"

	"langarchive/internal/domain"
	"langarchive/internal/domain/notification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier writes notification rows inside the engine's transaction and
// pushes them to live feeds after commit.
type Notifier interface {
	CreateTx(tx *gorm.DB, n *notification.Notification) error
	Publish(n *notification.Notification)
}

// allowedEdges is the complete legal-transition table. Self-loops are
// deliberately absent.
var allowedEdges = map[[2]State]bool{
	{StateDraft, StateReview}:         true,
	{StateReview, StateAccepted}:      true,
	{StateReview, StateNeedsRevision}: true,
	{StateNeedsRevision, StateReview}: true,
}

// Engine validates and applies workflow transitions. State mutation, the
// history event and all notification rows commit or roll back as one unit.
type Engine struct {
	db       *gorm.DB
	notifier Notifier
}

func NewEngine(db *gorm.DB, notifier Notifier) *Engine {
	return &Engine{db: db, notifier: notifier}
}

// TransitionTo moves a deposit to target. observed is the state the caller
// last saw; if the locked row disagrees, a concurrent writer won the race
// and the call fails with ErrConcurrentModification so the caller can
// reload and retry.
func (e *Engine) TransitionTo(ctx context.Context, depositID int64, observed, target State, actorID int64, actorRole string, comment string) (*Deposit, error) {
	if !validStates[target] || !validStates[observed] {
		return nil, ErrInvalidTransition
	}
	if actorID == 0 {
		return nil, ErrPermissionDenied
	}

	var dep Deposit
	var pending []*notification.Notification

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&dep, depositID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDepositNotFound
			}
			return err
		}

		if dep.State != observed {
			return ErrConcurrentModification
		}

		if !allowedEdges[[2]State{dep.State, target}] {
			return ErrInvalidTransition
		}

		involved, err := involvedUserIDs(tx, depositID)
		if err != nil {
			return err
		}

		if err := checkActor(&dep, target, actorID, actorRole, involved); err != nil {
			return err
		}

		if err := checkPreconditions(tx, &dep, target); err != nil {
			return err
		}

		from := dep.State
		dep.State = target
		if from == StateDraft {
			dep.IsDraft = false
		}

		if err := tx.Model(&Deposit{}).Where("id = ?", dep.ID).Updates(map[string]any{
			"state":    dep.State,
			"is_draft": dep.IsDraft,
		}).Error; err != nil {
			return err
		}

		event := &DepositEvent{
			DepositID: dep.ID,
			FromState: from,
			ToState:   target,
			ActorID:   actorID,
			Comment:   comment,
		}
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		pending, err = e.fanOut(tx, &dep, from, target, actorID, comment, involved)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, n := range pending {
		e.notifier.Publish(n)
	}

	return &dep, nil
}

// fanOut writes one STATE_CHANGE row per recipient and, for review
// outcomes, a SYSTEM summary to the draft owner. Rows go through the
// caller's transaction; returned notifications are published after commit.
func (e *Engine) fanOut(tx *gorm.DB, dep *Deposit, from, target State, actorID int64, comment string, involved []int64) ([]*notification.Notification, error) {
	msg := fmt.Sprintf("Deposit %q moved from %s to %s", dep.Title, from, target)
	if comment != "" {
		msg += ": " + comment
	}

	var pending []*notification.Notification

	for _, uid := range recipientSet(dep.DraftUserID, involved, actorID) {
		n := &notification.Notification{
			UserID:    uid,
			DepositID: dep.ID,
			Type:      notification.TypeStateChange,
			Title:     "Deposit state changed",
			Message:   msg,
		}
		if err := e.notifier.CreateTx(tx, n); err != nil {
			return nil, err
		}
		pending = append(pending, n)
	}

	if target == StateAccepted || target == StateNeedsRevision {
		summary := fmt.Sprintf("Your deposit %q was accepted into the archive.", dep.Title)
		if target == StateNeedsRevision {
			summary = fmt.Sprintf("Your deposit %q needs revision before it can be accepted.", dep.Title)
		}
		n := &notification.Notification{
			UserID:    dep.DraftUserID,
			DepositID: dep.ID,
			Type:      notification.TypeSystem,
			Title:     "Review outcome",
			Message:   summary,
		}
		if err := e.notifier.CreateTx(tx, n); err != nil {
			return nil, err
		}
		pending = append(pending, n)
	}

	return pending, nil
}

// checkActor enforces who may drive each edge: the draft owner submits and
// resubmits, involved reviewers decide, admins may do anything.
func checkActor(dep *Deposit, target State, actorID int64, actorRole string, involved []int64) error {
	if actorRole == string(domain.RoleAdmin) {
		return nil
	}

	switch target {
	case StateReview:
		if actorID != dep.DraftUserID {
			return ErrPermissionDenied
		}
	case StateAccepted, StateNeedsRevision:
		if actorID == dep.DraftUserID {
			return ErrPermissionDenied
		}
		for _, uid := range involved {
			if uid == actorID {
				return nil
			}
		}
		return ErrPermissionDenied
	}

	return nil
}

func checkPreconditions(tx *gorm.DB, dep *Deposit, target State) error {
	switch {
	case dep.State == StateDraft && target == StateReview:
		var count int64
		if err := tx.Model(&DepositFile{}).Where("deposit_id = ?", dep.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNoFiles
		}
	case dep.State == StateReview && target == StateAccepted:
		var count int64
		if err := tx.Model(&DepositFile{}).
			Where("deposit_id = ? AND is_metadata_file = ?", dep.ID, true).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNoMetadataFile
		}
	}
	return nil
}

func involvedUserIDs(tx *gorm.DB, depositID int64) ([]int64, error) {
	var ids []int64
	err := tx.Model(&InvolvedUser{}).Where("deposit_id = ?", depositID).Pluck("user_id", &ids).Error
	return ids, err
}

// recipientSet is the draft owner plus every involved user, deduplicated,
// minus the actor.
func recipientSet(draftUserID int64, involved []int64, actorID int64) []int64 {
	seen := map[int64]bool{}
	var out []int64
	for _, uid := range append([]int64{draftUserID}, involved...) {
		if uid == actorID || seen[uid] {
			continue
		}
		seen[uid] = true
		out = append(out, uid)
	}
	return out
}

// BulkSetState is the admin escape hatch for data repair: it writes states
// directly, bypassing edge validation. Side effects are controlled by an
// explicit flag, never by a process-wide toggle.
func (e *Engine) BulkSetState(ctx context.Context, depositIDs []int64, target State, emitNotifications bool) (int64, error) {
	if !validStates[target] {
		return 0, ErrInvalidTransition
	}
	if len(depositIDs) == 0 {
		return 0, nil
	}

	var updated int64
	var pending []*notification.Notification

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deps []Deposit
		if err := tx.Where("id IN ?", depositIDs).Find(&deps).Error; err != nil {
			return err
		}

		res := tx.Model(&Deposit{}).Where("id IN ?", depositIDs).Updates(map[string]any{
			"state":    target,
			"is_draft": target == StateDraft,
		})
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected

		if !emitNotifications {
			return nil
		}

		for _, dep := range deps {
			n := &notification.Notification{
				UserID:    dep.DraftUserID,
				DepositID: dep.ID,
				Type:      notification.TypeSystem,
				Title:     "Deposit state updated",
				Message:   fmt.Sprintf("Deposit %q was set to %s by an administrator", dep.Title, target),
			}
			if err := e.notifier.CreateTx(tx, n); err != nil {
				return err
			}
			pending = append(pending, n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, n := range pending {
		e.notifier.Publish(n)
	}

	return updated, nil
}
