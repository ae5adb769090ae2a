package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

func TestInsert(c Config) error {

	var next int64
	t0 := time.Now()

	err := Parallel(context.Background(), c.Workers, func(ctx context.Context, worker int) error {
		for {
			first := atomic.AddInt64(&next, int64(c.Batch)) - int64(c.Batch)
			if first >= c.N {
				return nil
			}

			rows := []JSON{}
			for i := first; i < first+int64(c.Batch) && i < c.N; i++ {
				rows = append(rows, JSON{
					"time_point": JSON{"frame": i},
					"components": JSON{
						"position": []any{float64(i), float64(i) * 2},
						"label":    []any{fmt.Sprintf("row-%d", i)},
					},
				})
			}

			err := Post(ctx, c.Base+"/v1/rows", JSON{
				"entity_path": fmt.Sprintf("/bench/entity-%d", first/int64(c.Batch)%int64(c.Entities)),
				"rows":        rows,
			}, 201)
			if err != nil {
				return err
			}
		}
	})

	Report("INSERT", c.N, time.Since(t0))
	return err
}
