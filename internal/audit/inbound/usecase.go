package inbound

import (
	"context"

	"github.com/otpgate/otpgate/internal/audit/usecase"
)

type uc interface {
	Record(ctx context.Context, in usecase.RecordInput) error
	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	Stats(ctx context.Context) (*usecase.StatsOutput, error)
	Purge(ctx context.Context, in usecase.PurgeInput) (*usecase.PurgeOutput, error)
	Export(ctx context.Context, in usecase.ExportInput) (*usecase.ExportOutput, error)
}
