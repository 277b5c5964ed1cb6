package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dfryer1193/namestofaces/people/domain"
)

var _ domain.ImageRepository = (*FileImageRepository)(nil)

// FileImageRepository implements domain.ImageRepository as loose files in the documents directory
type FileImageRepository struct {
	dir string
}

func NewImageRepository(documentsDir string) *FileImageRepository {
	return &FileImageRepository{
		dir: documentsDir,
	}
}

// localPath keeps every name inside the documents directory
func (r *FileImageRepository) localPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("image name cannot be empty")
	}
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid image name: %q", name)
	}
	return filepath.Join(r.dir, base), nil
}

func (r *FileImageRepository) SaveImage(ctx context.Context, img *domain.Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	localPath, err := r.localPath(img.Name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create documents directory: %w", err)
	}

	if err := os.WriteFile(localPath, img.Content, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

func (r *FileImageRepository) GetImage(ctx context.Context, name string) (*domain.Image, error) {
	localPath, err := r.localPath(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(localPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("image %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return &domain.Image{
		Name:      filepath.Base(localPath),
		Content:   content,
		UpdatedAt: info.ModTime().UTC(),
	}, nil
}

func (r *FileImageRepository) DeleteImage(ctx context.Context, name string) error {
	localPath, err := r.localPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}

	return nil
}
