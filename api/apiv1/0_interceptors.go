package apiv1

import (
	"context"

	"github.com/fulldump/latestat/service"
)

const ContextServicerKey = "3c1f5d2e-8a4b-11ef-b864-0242ac120002"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}
