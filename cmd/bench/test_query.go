package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

func TestQuery(c Config) error {

	remaining := c.N
	t0 := time.Now()

	err := Parallel(context.Background(), c.Workers, func(ctx context.Context, worker int) error {
		r := rand.New(rand.NewSource(int64(worker)))
		for atomic.AddInt64(&remaining, -1) >= 0 {
			// Most queries hit a few hot times so the cache gets reused
			at := r.Int63n(16) * c.N / 16
			err := Post(ctx, c.Base+"/v1/latest-at", JSON{
				"entity_path": fmt.Sprintf("/bench/entity-%d", r.Intn(c.Entities)),
				"timeline":    "frame",
				"at":          at,
				"components":  []string{"position", "label"},
			}, 200)
			if err != nil {
				return err
			}
		}
		return nil
	})

	Report("QUERY", c.N, time.Since(t0))
	return err
}
