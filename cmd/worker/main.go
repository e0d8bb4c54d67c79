package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Surya-blippi/Livio-sub001/internal/platform"
	"github.com/Surya-blippi/Livio-sub001/models"
	"github.com/Surya-blippi/Livio-sub001/render"
	"github.com/Surya-blippi/Livio-sub001/storage"
	"github.com/Surya-blippi/Livio-sub001/synthesis"
	"github.com/Surya-blippi/Livio-sub001/tasks"
	"github.com/Surya-blippi/Livio-sub001/worker"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()

	if err := db.AutoMigrate(&models.RenderJob{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := worker.NewProcessor(db, rdb)
	p.WorkRoot = platform.WorkRoot()
	p.Speech = synthesis.NewSpeech(os.Getenv("SPEECH_API_URL"), os.Getenv("SPEECH_API_KEY"))

	if transcriber, err := synthesis.NewWhisperTranscriber(); err != nil {
		log.Printf("Transcription disabled, falling back to estimated timings: %v", err)
	} else {
		p.Transcriber = transcriber
	}

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
	} else {
		log.Println("S3_BUCKET not set, finished renders stay on local disk")
	}
	p.Backend = render.NewLocalBackend(db, rdb, uploader, p.WorkRoot)

	p.Register(tasks.QueueRenderPlan, p.HandlePlanGeneration)
	p.Register(tasks.QueueRenderSubmit, p.HandleRenderSubmit)

	log.Println("Worker started, waiting for queue tasks...")
	p.Listen(ctx, tasks.QueueRenderPlan, tasks.QueueRenderSubmit)
}
