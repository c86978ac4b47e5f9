package attendance

import (
	"context"

	"github.com/park285/nearcade-kakao-bot/internal/domain"
	"github.com/park285/nearcade-kakao-bot/pkg/nearcadedto"
)

// Remote is the part of the nearcade API the core calls. Errors are surfaced to
// users verbatim, so implementations return human-readable messages.
type Remote interface {
	SearchShops(ctx context.Context, query string, maxResults int) ([]nearcadedto.Shop, error)
	GetShop(ctx context.Context, source string, id int64) (*nearcadedto.Shop, error)
	GetAttendance(ctx context.Context, source string, id int64) (*nearcadedto.AttendanceResponse, error)
	ReportAttendance(ctx context.Context, source string, id, gameUnitID int64, count int, comment string) (*nearcadedto.AttendanceReportResponse, error)
}

type BindingLister interface {
	ListBindings(ctx context.Context, channelID string) ([]*domain.ArcadeBinding, error)
}

// Reporters is satisfied by store.ReporterStore.
type Reporters interface {
	GetLastReporter(ctx context.Context, source string, externalID int64) (*domain.ReporterRecord, error)
	UpsertLastReporter(ctx context.Context, rec *domain.ReporterRecord) error
}
