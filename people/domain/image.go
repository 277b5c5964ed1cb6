package domain

import (
	"context"
	"time"
)

// Image represents a photo file stored in the documents directory
type Image struct {
	Name      string
	Content   []byte
	UpdatedAt time.Time
}

type ImageRepository interface {
	// SaveImage writes the image file, replacing any file with the same name
	SaveImage(ctx context.Context, img *Image) error

	// GetImage reads an image file by name
	GetImage(ctx context.Context, name string) (*Image, error)

	// DeleteImage removes an image file; a missing file is not an error
	DeleteImage(ctx context.Context, name string) error
}
