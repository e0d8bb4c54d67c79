package main

import (
	"context"
	"log"
	"os"

	"github.com/Surya-blippi/Livio-sub001/internal/platform"
	"github.com/Surya-blippi/Livio-sub001/render"
	"github.com/Surya-blippi/Livio-sub001/storage"
	"github.com/Surya-blippi/Livio-sub001/worker"
	"github.com/robfig/cron/v3"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()
	ctx := context.Background()

	// The sweep can end up running a job's final render step, so it needs
	// the same publisher the worker uses or finished videos would land on
	// local disk instead of S3.
	var uploader render.Uploader
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		s3, err := storage.NewS3(ctx, storage.Config{
			Region:    os.Getenv("AWS_REGION"),
			Bucket:    bucket,
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		})
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		uploader = s3
	}
	backend := render.NewLocalBackend(db, rdb, uploader, platform.WorkRoot())
	sweeper := worker.NewSweeper(db, backend)

	// Create a new cron scheduler
	c := cron.New()

	// The orchestrator normally drives a job to completion on its own
	// trigger ticker. The sweeper is the safety net behind it: it keeps
	// orphaned jobs stepping, records terminal states their dead
	// orchestrator never wrote, and fails jobs that stopped moving.
	_, err := c.AddFunc("@every 1m", func() {
		sweeper.Run(ctx)
	})
	if err != nil {
		log.Fatalf("Error scheduling render sweep: %v", err)
	}

	c.Start()
	defer c.Stop()

	log.Println("Scheduler started, sweeping in-flight renders...")
	// Keep the main thread alive
	select {}
}
