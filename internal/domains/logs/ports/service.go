package ports

import (
	"context"

	"github.com/Apurer/herdbook-api/internal/domains/logs/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
)

// Service exposes the local log collections.
type Service interface {
	Append(ctx context.Context, input types.AppendInput) (*types.WriteResult, error)
	ReadAll(ctx context.Context, collection domain.Collection) []domain.Record
	Replace(ctx context.Context, input types.ReplaceInput) (*types.WriteResult, error)
	UpdatePregnancyStatus(ctx context.Context, input types.PregnancyInput) (*types.WriteResult, error)
	// Watch calls fn with the current records, then again after every change, until ctx ends.
	Watch(ctx context.Context, collection domain.Collection, fn func([]domain.Record)) error
}
