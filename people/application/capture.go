package application

import (
	"context"
	"fmt"

	"github.com/dfryer1193/namestofaces/people/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const unknownName = "Unknown"

// Capture stores a newly taken photo and appends a person for it. It returns
// the person and the index they were appended at.
// The photo is normalized to JPEG and saved under a fresh UUID filename, so
// two captures never share a file. Nothing is stored if the image is invalid.
func (s *CollectionService) Capture(ctx context.Context, content []byte) (domain.Person, int, error) {
	jpegData, err := s.imaging.Normalize(content)
	if err != nil {
		return domain.Person{}, -1, fmt.Errorf("invalid image: %w", err)
	}

	img := &domain.Image{
		Name:      uuid.NewString() + ".jpg",
		Content:   jpegData,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.images.SaveImage(ctx, img); err != nil {
		return domain.Person{}, -1, fmt.Errorf("failed to store image: %w", err)
	}

	person := domain.NewPerson(unknownName, img.Name)
	index := s.add(ctx, person)

	log.Info().Str("image", img.Name).Int("index", index).Msg("Captured new person")
	return person, index, nil
}

// ImageContent returns the stored photo of a visible person
func (s *CollectionService) ImageContent(ctx context.Context, index int) (*domain.Image, error) {
	person, ok := s.Person(index)
	if !ok {
		return nil, domain.ErrNotVisible
	}

	img, err := s.images.GetImage(ctx, person.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to load image for person %d: %w", index, err)
	}
	return img, nil
}

// Thumbnail returns a scaled-down JPEG of a visible person's photo
func (s *CollectionService) Thumbnail(ctx context.Context, index int, size int) ([]byte, error) {
	img, err := s.ImageContent(ctx, index)
	if err != nil {
		return nil, err
	}
	return s.imaging.Thumbnail(img.Content, size)
}
