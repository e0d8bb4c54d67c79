package worker

import (
	"context"
	"log"
	"time"

	"github.com/Surya-blippi/Livio-sub001/render"
	"github.com/Surya-blippi/Livio-sub001/synthesis"
	"github.com/Surya-blippi/Livio-sub001/tasks"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload string) error

// Processor holds dependencies and registered task handlers. The render
// pipeline fields are set by the worker entrypoint before Listen.
type Processor struct {
	DB           *gorm.DB
	RDB          *redis.Client
	Speech       *synthesis.Speech
	Transcriber  synthesis.Transcriber
	Backend      render.Backend
	RenderConfig render.Config
	WorkRoot     string
	handlers     map[string]TaskHandler
}

// NewProcessor creates a new worker processor.
func NewProcessor(db *gorm.DB, rdb *redis.Client) *Processor {
	return &Processor{
		DB:           db,
		RDB:          rdb,
		RenderConfig: render.DefaultConfig(),
		handlers:     make(map[string]TaskHandler),
	}
}

// Register maps a queue name (task type) to a handler function.
func (p *Processor) Register(queueName string, handler TaskHandler) {
	p.handlers[queueName] = handler
	log.Printf("Registered handler for queue: %s", queueName)
}

// Enqueue is a helper to add a new task to a queue.
func (p *Processor) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	return p.RDB.LPush(ctx, queueName, payloadStr).Err()
}

// Listen starts the worker, listening on all registered queues until the
// context is cancelled. The pop uses a short timeout instead of blocking
// forever so cancellation is noticed between tasks.
func (p *Processor) Listen(ctx context.Context, queueNames ...string) {
	log.Printf("Worker listening on %d queues: %v", len(queueNames), queueNames)

	for {
		if ctx.Err() != nil {
			log.Printf("Worker shutting down: %v", ctx.Err())
			return
		}

		result, err := p.RDB.BRPop(ctx, 5*time.Second, queueNames...).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("Worker shutting down: %v", ctx.Err())
				return
			}
			log.Printf("Error popping from queue: %v", err)
			time.Sleep(time.Second)
			continue
		}

		// result[0] is the queue name, result[1] is the payload
		queueName := result[0]
		payload := result[1]

		handler, ok := p.handlers[queueName]
		if !ok {
			log.Printf("Error: No handler registered for queue %s", queueName)
			continue
		}

		log.Printf("Received task from queue %s", queueName)
		p.runTask(ctx, queueName, handler, payload)
	}
}

// runTask executes one handler, containing panics so a bad job never
// takes the worker loop down with it.
func (p *Processor) runTask(ctx context.Context, queueName string, handler TaskHandler, payload string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic processing task from %s: %v", queueName, r)
		}
	}()

	if err := handler(ctx, payload); err != nil {
		log.Printf("Error processing task from %s: %v", queueName, err)
	}
}
