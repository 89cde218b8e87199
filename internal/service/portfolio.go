package service

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/storage"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

// imageStore is the part of storage.Local the portfolio uses.
type imageStore interface {
	SaveImage(originalName string, r io.Reader) (storage.Stored, error)
	Remove(name string) error
}

type PortfolioService struct {
	items   portafolioStore
	storage imageStore
	logger  *zerolog.Logger
}

func NewPortfolioService(items portafolioStore, storage imageStore, logger *zerolog.Logger) *PortfolioService {
	return &PortfolioService{items: items, storage: storage, logger: logger}
}

// Add stores an uploaded image and records it in p's portfolio.
func (s *PortfolioService) Add(ctx context.Context, p model.Principal, filename string, r io.Reader, descripcion *string) (*model.PortafolioItem, error) {
	if !p.IsProveedor() {
		return nil, errs.NewUnauthorizedError(MsgUnauthorized, true)
	}

	stored, err := s.storage.SaveImage(filename, r)
	if err != nil {
		return nil, uploadError(err)
	}

	item, err := s.items.Create(ctx, &model.PortafolioItem{
		ProveedorID: p.ID,
		ImagenURL:   stored.URL,
		Archivo:     stored.Name,
		Descripcion: trimmedOrNil(descripcion),
	})
	if err != nil {
		if rmErr := s.storage.Remove(stored.Name); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("archivo", stored.Name).Msg("could not remove orphaned upload")
		}
		return nil, err
	}
	return item, nil
}

// Delete removes one of p's items and its file.
func (s *PortfolioService) Delete(ctx context.Context, p model.Principal, id int64) error {
	if !p.IsProveedor() {
		return errs.NewUnauthorizedError(MsgUnauthorized, true)
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.ProveedorID != p.ID {
		return errs.NewForbiddenError(MsgUnauthorized, true)
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Remove(item.Archivo); err != nil {
		s.logger.Warn().Err(err).Str("archivo", item.Archivo).Msg("could not remove portfolio file")
	}
	return nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, storage.ErrEmptyFile),
		errors.Is(err, storage.ErrInvalidFilename),
		errors.Is(err, storage.ErrExtension),
		errors.Is(err, storage.ErrNotImage),
		errors.Is(err, storage.ErrTooLarge):
		return errs.NewBadRequestError(err.Error(), true, nil, nil, nil)
	}
	return err
}
