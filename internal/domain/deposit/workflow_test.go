package deposit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"langarchive/internal/domain"
	"langarchive/internal/domain/notification"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

func setupWorkflowTest(t *testing.T) (*gorm.DB, *Engine) {
	t.Helper()
	dsn := fmt.Sprintf("file:workflow_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&Deposit{}, &DepositFile{}, &InvolvedUser{}, &DepositEvent{}, &notification.Notification{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	engine := NewEngine(db, notification.NewService(notification.NewRepository(db), nil))
	return db, engine
}

func createDeposit(t *testing.T, db *gorm.DB, ownerID int64, state State, involved ...int64) *Deposit {
	t.Helper()
	dep := &Deposit{
		Title:       "Wet season recordings",
		DraftUserID: ownerID,
		State:       state,
		IsDraft:     state == StateDraft,
	}
	if err := db.Create(dep).Error; err != nil {
		t.Fatalf("failed to create deposit: %v", err)
	}
	for _, uid := range involved {
		if err := db.Create(&InvolvedUser{DepositID: dep.ID, UserID: uid}).Error; err != nil {
			t.Fatalf("failed to add involved user: %v", err)
		}
	}
	return dep
}

func addFile(t *testing.T, db *gorm.DB, depositID int64, isMetadata bool) {
	t.Helper()
	f := &DepositFile{
		ID:             fmt.Sprintf("f-%d-%v-%d", depositID, isMetadata, fileSeq(db, depositID)),
		DepositID:      depositID,
		Filename:       "session.wav",
		FilePath:       "x/session.wav",
		Size:           1024,
		MimeType:       "audio/wav",
		UploadedBy:     1,
		IsMetadataFile: isMetadata,
	}
	if err := db.Create(f).Error; err != nil {
		t.Fatalf("failed to create deposit file: %v", err)
	}
}

func fileSeq(db *gorm.DB, depositID int64) int64 {
	var n int64
	db.Model(&DepositFile{}).Where("deposit_id = ?", depositID).Count(&n)
	return n
}

func reload(t *testing.T, db *gorm.DB, id int64) *Deposit {
	t.Helper()
	var dep Deposit
	if err := db.First(&dep, id).Error; err != nil {
		t.Fatalf("failed to reload deposit: %v", err)
	}
	return &dep
}

func allNotifications(t *testing.T, db *gorm.DB) []notification.Notification {
	t.Helper()
	var out []notification.Notification
	if err := db.Order("id").Find(&out).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	return out
}

func countEvents(t *testing.T, db *gorm.DB, depositID int64) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&DepositEvent{}).Where("deposit_id = ?", depositID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	return n
}

const (
	ownerID    = int64(1)
	reviewerID = int64(2)
	adminID    = int64(9)
)

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	dep := createDeposit(t, db, ownerID, StateDraft)
	addFile(t, db, dep.ID, false)

	_, err := engine.TransitionTo(context.Background(), dep.ID, StateDraft, StateAccepted, ownerID, string(domain.RoleDepositor), "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if got := reload(t, db, dep.ID).State; got != StateDraft {
		t.Fatalf("state should be unchanged after rejected transition, got %s", got)
	}
	if n := countEvents(t, db, dep.ID); n != 0 {
		t.Fatalf("expected no events after rejected transition, got %d", n)
	}
	if n := allNotifications(t, db); len(n) != 0 {
		t.Fatalf("expected no notifications after rejected transition, got %d", len(n))
	}
}

func TestTransitionRejectsSelfLoop(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	dep := createDeposit(t, db, ownerID, StateReview, reviewerID)

	_, err := engine.TransitionTo(context.Background(), dep.ID, StateReview, StateReview, reviewerID, string(domain.RoleReviewer), "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for self-loop, got %v", err)
	}
}

func TestTransitionRejectsUnknownState(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	dep := createDeposit(t, db, ownerID, StateDraft)

	_, err := engine.TransitionTo(context.Background(), dep.ID, StateDraft, State("PUBLISHED"), ownerID, string(domain.RoleDepositor), "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unknown state, got %v", err)
	}
}

func TestSubmitRequiresAtLeastOneFile(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	dep := createDeposit(t, db, ownerID, StateDraft, reviewerID)

	_, err := engine.TransitionTo(context.Background(), dep.ID, StateDraft, StateReview, ownerID, string(domain.RoleDepositor), "")
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if got := reload(t, db, dep.ID).State; got != StateDraft {
		t.Fatalf("state should be unchanged, got %s", got)
	}
	if n := allNotifications(t, db); len(n) != 0 {
		t.Fatalf("expected no notifications on failed submit, got %d", len(n))
	}

	addFile(t, db, dep.ID, false)

	updated, err := engine.TransitionTo(context.Background(), dep.ID, StateDraft, StateReview, ownerID, string(domain.RoleDepositor), "")
	if err != nil {
		t.Fatalf("submit after adding file failed: %v", err)
	}
	if updated.State != StateReview {
		t.Fatalf("expected state REVIEW, got %s", updated.State)
	}
	if updated.IsDraft {
		t.Fatal("deposit should no longer be a draft after submission")
	}

	// Owner is the actor, so only the involved reviewer gets notified.
	notifs := allNotifications(t, db)
	if len(notifs) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(notifs))
	}
	if notifs[0].UserID != reviewerID || notifs[0].Type != notification.TypeStateChange {
		t.Fatalf("unexpected notification: user=%d type=%s", notifs[0].UserID, notifs[0].Type)
	}
	if n := countEvents(t, db, dep.ID); n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
}

func TestAcceptRequiresMetadataFile(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	dep := createDeposit(t, db, ownerID, StateReview, reviewerID)
	addFile(t, db, dep.ID, false)

	_, err := engine.TransitionTo(context.Background(), dep.ID, StateReview, StateAccepted, reviewerID, string(domain.RoleReviewer), "")
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if !strings.Contains(pre.Reason, "metadata") {
		t.Fatalf("expected metadata precondition, got %q", pre.Reason)
	}

	addFile(t, db, dep.ID, true)

	updated, err := engine.TransitionTo(context.Background(), dep.ID, StateReview, StateAccepted, reviewerID, string(domain.RoleReviewer), "")
	if err != nil {
		t.Fatalf("accept after adding metadata file failed: %v", err)
	}
	if updated.State != StateAccepted {
		t.Fatalf("expected state ACCEPTED, got %s", updated.State)
	}

	// Reviewer acted, so the owner gets the STATE_CHANGE plus the SYSTEM summary.
	notifs := allNotifications(t, db)
	if len(notifs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifs))
	}
	var stateChange, system int
	for _, n := range notifs {
		if n.UserID != ownerID {
			t.Fatalf("notification sent to unexpected user %d", n.UserID)
		}
		switch n.Type {
		case notification.TypeStateChange:
			stateChange++
		case notification.TypeSystem:
			system++
		}
	}
	if stateChange != 1 || system != 1 {
		t.Fatalf("expected 1 STATE_CHANGE and 1 SYSTEM, got %d and %d", stateChange, system)
	}
}

func TestNeedsRevisionCarriesReviewerComment(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	dep := createDeposit(t, db, ownerID, StateReview, reviewerID)
	addFile(t, db, dep.ID, false)

	comment := "speaker names are missing from the session metadata"
	_, err := engine.TransitionTo(context.Background(), dep.ID, StateReview, StateNeedsRevision, reviewerID, string(domain.RoleReviewer), comment)
	if err != nil {
		t.Fatalf("needs-revision transition failed: %v", err)
	}

	notifs := allNotifications(t, db)
	if len(notifs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifs))
	}
	var sawComment, sawRevisionSummary bool
	for _, n := range notifs {
		if n.Type == notification.TypeStateChange && strings.Contains(n.Message, comment) {
			sawComment = true
		}
		if n.Type == notification.TypeSystem && strings.Contains(n.Message, "revision") {
			sawRevisionSummary = true
		}
	}
	if !sawComment {
		t.Fatal("reviewer comment missing from STATE_CHANGE notification")
	}
	if !sawRevisionSummary {
		t.Fatal("SYSTEM notification should mention the revision outcome")
	}

	var event DepositEvent
	if err := db.Where("deposit_id = ?", dep.ID).First(&event).Error; err != nil {
		t.Fatalf("failed to load event: %v", err)
	}
	if event.Comment != comment {
		t.Fatalf("expected comment on event, got %q", event.Comment)
	}
}

func TestResubmitAfterRevision(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	dep := createDeposit(t, db, ownerID, StateNeedsRevision, reviewerID)
	addFile(t, db, dep.ID, false)

	updated, err := engine.TransitionTo(context.Background(), dep.ID, StateNeedsRevision, StateReview, ownerID, string(domain.RoleDepositor), "fixed the transcripts")
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if updated.State != StateReview {
		t.Fatalf("expected state REVIEW, got %s", updated.State)
	}
}

func TestStaleObservedStateLosesRace(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	dep := createDeposit(t, db, ownerID, StateDraft, reviewerID)
	addFile(t, db, dep.ID, false)

	// Two callers both saw DRAFT. The first one wins.
	if _, err := engine.TransitionTo(context.Background(), dep.ID, StateDraft, StateReview, ownerID, string(domain.RoleDepositor), ""); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}

	_, err := engine.TransitionTo(context.Background(), dep.ID, StateDraft, StateReview, ownerID, string(domain.RoleDepositor), "")
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	// The loser must not have produced duplicate events or notifications.
	if n := countEvents(t, db, dep.ID); n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
	if n := allNotifications(t, db); len(n) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(n))
	}
}

func TestTransitionPermissions(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	ctx := context.Background()

	t.Run("owner cannot accept own deposit", func(t *testing.T) {
		dep := createDeposit(t, db, ownerID, StateReview, ownerID, reviewerID)
		addFile(t, db, dep.ID, true)
		_, err := engine.TransitionTo(ctx, dep.ID, StateReview, StateAccepted, ownerID, string(domain.RoleDepositor), "")
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("uninvolved reviewer cannot decide", func(t *testing.T) {
		dep := createDeposit(t, db, ownerID, StateReview, reviewerID)
		addFile(t, db, dep.ID, true)
		_, err := engine.TransitionTo(ctx, dep.ID, StateReview, StateAccepted, 77, string(domain.RoleReviewer), "")
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("only owner submits", func(t *testing.T) {
		dep := createDeposit(t, db, ownerID, StateDraft, reviewerID)
		addFile(t, db, dep.ID, false)
		_, err := engine.TransitionTo(ctx, dep.ID, StateDraft, StateReview, reviewerID, string(domain.RoleReviewer), "")
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("admin may drive any edge", func(t *testing.T) {
		dep := createDeposit(t, db, ownerID, StateReview, reviewerID)
		addFile(t, db, dep.ID, true)
		updated, err := engine.TransitionTo(ctx, dep.ID, StateReview, StateAccepted, adminID, string(domain.RoleAdmin), "")
		if err != nil {
			t.Fatalf("admin transition failed: %v", err)
		}
		if updated.State != StateAccepted {
			t.Fatalf("expected state ACCEPTED, got %s", updated.State)
		}
	})
}

func TestFullWorkflowHistory(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	ctx := context.Background()
	dep := createDeposit(t, db, ownerID, StateDraft, reviewerID)
	addFile(t, db, dep.ID, true)

	steps := []struct {
		observed, target State
		actorID          int64
		role             string
	}{
		{StateDraft, StateReview, ownerID, string(domain.RoleDepositor)},
		{StateReview, StateNeedsRevision, reviewerID, string(domain.RoleReviewer)},
		{StateNeedsRevision, StateReview, ownerID, string(domain.RoleDepositor)},
		{StateReview, StateAccepted, reviewerID, string(domain.RoleReviewer)},
	}
	for i, s := range steps {
		if _, err := engine.TransitionTo(ctx, dep.ID, s.observed, s.target, s.actorID, s.role, ""); err != nil {
			t.Fatalf("step %d (%s -> %s) failed: %v", i, s.observed, s.target, err)
		}
	}

	var events []DepositEvent
	if err := db.Where("deposit_id = ?", dep.ID).Order("id").Find(&events).Error; err != nil {
		t.Fatalf("failed to load events: %v", err)
	}
	if len(events) != len(steps) {
		t.Fatalf("expected %d events, got %d", len(steps), len(events))
	}
	for i, ev := range events {
		if ev.FromState != steps[i].observed || ev.ToState != steps[i].target {
			t.Fatalf("event %d: expected %s -> %s, got %s -> %s", i, steps[i].observed, steps[i].target, ev.FromState, ev.ToState)
		}
		if ev.ActorID != steps[i].actorID {
			t.Fatalf("event %d: expected actor %d, got %d", i, steps[i].actorID, ev.ActorID)
		}
	}

	if got := reload(t, db, dep.ID).State; got != StateAccepted {
		t.Fatalf("expected final state ACCEPTED, got %s", got)
	}
}

func TestTransitionMissingDeposit(t *testing.T) {
	_, engine := setupWorkflowTest(t)
	_, err := engine.TransitionTo(context.Background(), 12345, StateDraft, StateReview, ownerID, string(domain.RoleDepositor), "")
	if !errors.Is(err, ErrDepositNotFound) {
		t.Fatalf("expected ErrDepositNotFound, got %v", err)
	}
}

func TestBulkSetStateNotificationFlag(t *testing.T) {
	db, engine := setupWorkflowTest(t)
	ctx := context.Background()

	a := createDeposit(t, db, ownerID, StateDraft)
	b := createDeposit(t, db, reviewerID, StateReview)

	updated, err := engine.BulkSetState(ctx, []int64{a.ID, b.ID}, StateAccepted, false)
	if err != nil {
		t.Fatalf("bulk update failed: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 rows updated, got %d", updated)
	}
	if n := allNotifications(t, db); len(n) != 0 {
		t.Fatalf("expected silent bulk update, got %d notifications", len(n))
	}

	if _, err := engine.BulkSetState(ctx, []int64{a.ID, b.ID}, StateNeedsRevision, true); err != nil {
		t.Fatalf("bulk update with notifications failed: %v", err)
	}
	notifs := allNotifications(t, db)
	if len(notifs) != 2 {
		t.Fatalf("expected 1 notification per deposit, got %d", len(notifs))
	}
	for _, n := range notifs {
		if n.Type != notification.TypeSystem {
			t.Fatalf("expected SYSTEM notifications, got %s", n.Type)
		}
	}
}

func TestParseState(t *testing.T) {
	if st, ok := ParseState("REVIEW"); !ok || st != StateReview {
		t.Fatalf("expected REVIEW to parse, got %s ok=%v", st, ok)
	}
	if _, ok := ParseState("review"); ok {
		t.Fatal("state parsing must be case-sensitive")
	}
	if _, ok := ParseState("DELETED"); ok {
		t.Fatal("unknown state must not parse")
	}
}
