package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/sync/errgroup"

	"github.com/fulldump/latestat/bootstrap"
	"github.com/fulldump/latestat/configuration"
)

type JSON = map[string]any

var client = &http.Client{
	Transport: &http.Transport{
		MaxConnsPerHost:     1024,
		MaxIdleConnsPerHost: 1024,
		MaxIdleConns:        1024,
	},
}

// Parallel runs f on every worker and returns the first error.
func Parallel(ctx context.Context, workers int, f func(ctx context.Context, worker int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return f(ctx, i)
		})
	}
	return g.Wait()
}

func Post(ctx context.Context, url string, payload any, expected int) error {

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expected {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: status %d: %s", url, resp.StatusCode, b)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

func Report(name string, n int64, took time.Duration) {
	fmt.Println(name)
	fmt.Println("  sent:", n)
	fmt.Println("  took:", took)
	fmt.Printf("  throughput: %.2f/sec\n", float64(n)/took.Seconds())
}

func CreateServer(c *Config) (start, stop func()) {
	conf := configuration.Default()
	conf.LogLevel = "warn"
	conf.MetricsPath = ""
	c.Base = "http://" + conf.HttpAddr

	return bootstrap.Bootstrap(&conf)
}
