package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"edurag/internal/adapter/fs"
	"edurag/internal/domain"
)

// ImportUseCase uploads the text files of a directory tree for one institution.
type ImportUseCase struct {
	docs   *DocumentService
	walker *fs.Walker
}

// NewImportUseCase creates a new import use case.
func NewImportUseCase(docs *DocumentService, walker *fs.Walker) *ImportUseCase {
	return &ImportUseCase{
		docs:   docs,
		walker: walker,
	}
}

// ImportResult contains the results of an import.
type ImportResult struct {
	FilesImported int
	FilesSkipped  int
	FilesDeleted  int
	FilesFailed   int
	Errors        []string
}

// FileURL is the file_url recorded for an imported file.
func FileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// FileDocumentID derives a stable document id from an institution and a file
// URL, so importing the same tree twice updates documents in place and two
// institutions importing one file get separate documents.
func FileDocumentID(institutionID, fileURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(institutionID+"\x00"+fileURL)).String()
}

// Import walks root and uploads every matching file. Files already processed
// and unchanged since are skipped. Documents imported earlier from under
// root whose file is gone are deleted. progress is called once per file.
func (u *ImportUseCase) Import(ctx context.Context, root, institutionID string, progress func(done, total int, path string)) (*ImportResult, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existing, err := u.docs.List(ctx, institutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing docs: %w", err)
	}
	existingByID := make(map[string]domain.Document, len(existing))
	for _, doc := range existing {
		existingByID[doc.ID] = doc
	}

	result := &ImportResult{}
	seen := make(map[string]bool, len(files))

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fileURL := FileURL(file.Path)
		id := FileDocumentID(institutionID, fileURL)
		seen[id] = true

		if doc, ok := existingByID[id]; ok && doc.IsProcessed() && !file.ModTime.After(doc.UpdatedAt) {
			result.FilesSkipped++
			if progress != nil {
				progress(i+1, len(files), file.Path)
			}
			continue
		}

		if err := u.importFile(ctx, file.Path, institutionID, result); err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
		}
		if progress != nil {
			progress(i+1, len(files), file.Path)
		}
	}

	prefix := FileURL(root) + "/"
	for id, doc := range existingByID {
		if seen[id] || !strings.HasPrefix(doc.FileURL, prefix) {
			continue
		}
		if err := u.docs.Delete(ctx, id); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", doc.FileURL, err))
			continue
		}
		result.FilesDeleted++
	}

	return result, nil
}

// Matches reports whether Import would pick up path under root.
func (u *ImportUseCase) Matches(root, path string) bool {
	return u.walker.Matches(root, path)
}

// ImportFile uploads a single file, as Import does for each match.
func (u *ImportUseCase) ImportFile(ctx context.Context, path, institutionID string) (domain.Document, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return domain.Document{}, err
	}
	text, err := fs.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to read file: %w", err)
	}
	fileURL := FileURL(path)
	return u.docs.Upload(ctx, UploadRequest{
		ID:            FileDocumentID(institutionID, fileURL),
		InstitutionID: institutionID,
		Title:         titleFromPath(path),
		FileURL:       fileURL,
		Text:          text,
	})
}

func (u *ImportUseCase) importFile(ctx context.Context, path, institutionID string, result *ImportResult) error {
	doc, err := u.ImportFile(ctx, path, institutionID)
	if err != nil {
		return err
	}
	if doc.State == domain.StateFailed {
		return fmt.Errorf("ingestion failed: %s", doc.FailureReason)
	}
	result.FilesImported++
	return nil
}

// titleFromPath turns "admission_requirements.txt" into "admission requirements".
func titleFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	if strings.TrimSpace(name) == "" {
		return base
	}
	return name
}
