package apiv1

import (
	"context"
)

type garbageCollectRequest struct {
	TargetBytes uint64 `json:"target_bytes"`
}

type garbageCollectResponse struct {
	DroppedChunks int `json:"dropped_chunks"`
}

func garbageCollect(ctx context.Context, input *garbageCollectRequest) *garbageCollectResponse {
	return &garbageCollectResponse{
		DroppedChunks: GetServicer(ctx).GarbageCollect(input.TargetBytes),
	}
}
