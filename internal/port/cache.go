package port

import (
	"context"

	"github.com/predictive-exchange/binary-market/internal/domain"
)

type Cache interface {
	SetBook(ctx context.Context, option domain.Option, snap *domain.BookSnapshot) error
	GetBook(ctx context.Context, option domain.Option) (*domain.BookSnapshot, error)
	Invalidate(ctx context.Context, option domain.Option) error
}
