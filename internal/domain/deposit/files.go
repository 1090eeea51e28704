package deposit

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"langarchive/internal/domain"

	"github.com/google/uuid"
)

const (
	DefaultMaxFileSize = 200 * 1024 * 1024 // 200 MB
	DefaultBaseDir     = "./uploads"
)

// FileService stores deposit files on local disk and records them in the
// database. Simple: save file -> record in DB -> return the record.
type FileService struct {
	repo    Repository
	baseDir string
	maxSize int64
}

func NewFileService(repo Repository, baseDir string, maxSize int64) *FileService {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &FileService{repo: repo, baseDir: baseDir, maxSize: maxSize}
}

// Upload attaches a file to a deposit. Only the draft owner (or an admin)
// may add files, and only while the deposit is in an editable state.
func (s *FileService) Upload(ctx context.Context, depositID, userID int64, role string, fileHeader *multipart.FileHeader, isMetadata bool, itemIdent string) (*DepositFile, error) {
	dep, err := s.repo.GetByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(dep, userID, role); err != nil {
		return nil, err
	}

	if fileHeader.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fileHeader.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Sniff MIME from the first 512 bytes; deposits accept any type, the
	// value is recorded for display and export only.
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	mimeType := strings.Split(http.DetectContentType(buf[:n]), ";")[0]

	if seeker, ok := file.(io.Seeker); ok {
		_, _ = seeker.Seek(0, io.SeekStart)
	}

	// Directory layout: uploads/YYYY/MM/DD/
	now := time.Now()
	relDir := fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day())
	absDir := filepath.Join(s.baseDir, relDir)
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	id := uuid.New().String()
	filename := fmt.Sprintf("%s_%s", id, sanitizeName(fileHeader.Filename))

	absPath := filepath.Join(absDir, filename)
	dst, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	relPath := filepath.Join(relDir, filename)

	record := &DepositFile{
		ID:         id,
		DepositID:  depositID,
		Filename:   fileHeader.Filename,
		FilePath:   relPath,
		Size:       fileHeader.Size,
		MimeType:   mimeType,
		UploadedBy: userID,
		ItemIdent:  itemIdent,
	}

	if isMetadata {
		superseded, err := s.repo.ReplaceMetadataFile(ctx, depositID, record)
		if err != nil {
			_ = os.Remove(absPath) // rollback file on DB error
			return nil, fmt.Errorf("failed to save file record: %w", err)
		}
		for _, old := range superseded {
			_ = os.Remove(filepath.Join(s.baseDir, old.FilePath))
		}
		return record, nil
	}

	if err := s.repo.CreateFile(ctx, record); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	return record, nil
}

// Delete removes a file record and its bytes on disk.
func (s *FileService) Delete(ctx context.Context, depositID int64, fileID string, userID int64, role string) error {
	dep, err := s.repo.GetByID(ctx, depositID)
	if err != nil {
		return err
	}
	if err := s.checkEditable(dep, userID, role); err != nil {
		return err
	}

	f, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if f.DepositID != depositID {
		return ErrFileNotFound
	}

	if err := s.repo.DeleteFile(ctx, fileID); err != nil {
		return err
	}

	_ = os.Remove(filepath.Join(s.baseDir, f.FilePath)) // file may already be gone
	return nil
}

func (s *FileService) List(ctx context.Context, depositID int64) ([]DepositFile, error) {
	if _, err := s.repo.GetByID(ctx, depositID); err != nil {
		return nil, err
	}
	return s.repo.ListFiles(ctx, depositID)
}

// checkEditable gates file mutation to the owner (or admin) while the
// deposit is not under review or accepted.
func (s *FileService) checkEditable(dep *Deposit, userID int64, role string) error {
	if role != string(domain.RoleAdmin) && dep.DraftUserID != userID {
		return ErrPermissionDenied
	}
	if dep.State != StateDraft && dep.State != StateNeedsRevision {
		return ErrDepositLocked
	}
	return nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	ext := filepath.Ext(name)
	name = strings.TrimSuffix(name, ext)
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" {
		name = "file"
	}
	return name + ext
}
