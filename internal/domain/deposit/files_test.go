package deposit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"testing"

	"langarchive/internal/domain"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupFileTest(t *testing.T) (*gorm.DB, *FileService) {
	t.Helper()
	dsn := fmt.Sprintf("file:files_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&Deposit{}, &DepositFile{}, &InvolvedUser{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	svc := NewFileService(NewRepository(db), t.TempDir(), 1<<20)
	return db, svc
}

func makeFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	_ = w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(int64(len(content)) + 4096)
	if err != nil {
		t.Fatalf("failed to read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestUploadStoresFileRecord(t *testing.T) {
	db, svc := setupFileTest(t)
	dep := createDeposit(t, db, ownerID, StateDraft)

	f, err := svc.Upload(context.Background(), dep.ID, ownerID, string(domain.RoleDepositor), makeFileHeader(t, "session 01.wav", []byte("RIFF....WAVE")), false, "FW2025-001")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if f.Size == 0 || f.ID == "" {
		t.Fatalf("incomplete file record: %+v", f)
	}
	if f.ItemIdent != "FW2025-001" {
		t.Fatalf("expected item ident to be kept, got %q", f.ItemIdent)
	}

	files, err := svc.List(context.Background(), dep.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
}

func TestUploadRejectedWhileUnderReview(t *testing.T) {
	db, svc := setupFileTest(t)
	dep := createDeposit(t, db, ownerID, StateReview)

	_, err := svc.Upload(context.Background(), dep.ID, ownerID, string(domain.RoleDepositor), makeFileHeader(t, "late.wav", []byte("data")), false, "")
	if !errors.Is(err, ErrDepositLocked) {
		t.Fatalf("expected ErrDepositLocked, got %v", err)
	}
}

func TestUploadAllowedAfterRevisionRequest(t *testing.T) {
	db, svc := setupFileTest(t)
	dep := createDeposit(t, db, ownerID, StateNeedsRevision)

	if _, err := svc.Upload(context.Background(), dep.ID, ownerID, string(domain.RoleDepositor), makeFileHeader(t, "fixed.wav", []byte("data")), false, ""); err != nil {
		t.Fatalf("upload during revision failed: %v", err)
	}
}

func TestUploadRejectsNonOwner(t *testing.T) {
	db, svc := setupFileTest(t)
	dep := createDeposit(t, db, ownerID, StateDraft)

	_, err := svc.Upload(context.Background(), dep.ID, reviewerID, string(domain.RoleReviewer), makeFileHeader(t, "x.wav", []byte("data")), false, "")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestUploadRejectsEmptyAndOversizedFiles(t *testing.T) {
	db, svc := setupFileTest(t)
	dep := createDeposit(t, db, ownerID, StateDraft)
	ctx := context.Background()

	_, err := svc.Upload(ctx, dep.ID, ownerID, string(domain.RoleDepositor), makeFileHeader(t, "empty.wav", nil), false, "")
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}

	big := bytes.Repeat([]byte("a"), (1<<20)+1)
	_, err = svc.Upload(ctx, dep.ID, ownerID, string(domain.RoleDepositor), makeFileHeader(t, "big.bin", big), false, "")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestMetadataFileReplacement(t *testing.T) {
	db, svc := setupFileTest(t)
	dep := createDeposit(t, db, ownerID, StateDraft)
	ctx := context.Background()

	first, err := svc.Upload(ctx, dep.ID, ownerID, string(domain.RoleDepositor), makeFileHeader(t, "metadata-v1.xml", []byte("<v1/>")), true, "")
	if err != nil {
		t.Fatalf("first metadata upload failed: %v", err)
	}
	second, err := svc.Upload(ctx, dep.ID, ownerID, string(domain.RoleDepositor), makeFileHeader(t, "metadata-v2.xml", []byte("<v2/>")), true, "")
	if err != nil {
		t.Fatalf("second metadata upload failed: %v", err)
	}

	var metaFiles []DepositFile
	if err := db.Where("deposit_id = ? AND is_metadata_file = ?", dep.ID, true).Find(&metaFiles).Error; err != nil {
		t.Fatalf("failed to load metadata files: %v", err)
	}
	if len(metaFiles) != 1 {
		t.Fatalf("expected exactly one metadata file, got %d", len(metaFiles))
	}
	if metaFiles[0].ID != second.ID {
		t.Fatalf("expected newest metadata file %s to survive, got %s", second.ID, metaFiles[0].ID)
	}

	var gone int64
	db.Model(&DepositFile{}).Where("id = ?", first.ID).Count(&gone)
	if gone != 0 {
		t.Fatal("superseded metadata file row should be deleted")
	}
}

func TestDeleteFileScopedToDeposit(t *testing.T) {
	db, svc := setupFileTest(t)
	ctx := context.Background()
	a := createDeposit(t, db, ownerID, StateDraft)
	b := createDeposit(t, db, ownerID, StateDraft)

	f, err := svc.Upload(ctx, a.ID, ownerID, string(domain.RoleDepositor), makeFileHeader(t, "keep.wav", []byte("data")), false, "")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	// File belongs to deposit a; deleting it through deposit b must fail.
	if err := svc.Delete(ctx, b.ID, f.ID, ownerID, string(domain.RoleDepositor)); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, a.ID, f.ID, ownerID, string(domain.RoleDepositor)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	files, err := svc.List(ctx, a.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files after delete, got %d", len(files))
	}
}
