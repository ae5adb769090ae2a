package apiv1

import (
	"context"

	"github.com/fulldump/latestat/service"
)

func getStats(ctx context.Context) service.Stats {
	return GetServicer(ctx).Stats()
}
