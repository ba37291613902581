package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/port"
)

// ===================== Client =====================

// AsynqClient implements port.Client using github.com/hibiken/asynq
// and Redis as the backing store.
type AsynqClient struct {
	client *asynq.Client
}

// NewAsynqClient constructs a client from a redis URL.
func NewAsynqClient(redisURL string) (*AsynqClient, error) {
	if redisURL == "" {
		return nil, errors.New("asynq: empty redis URL")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis URL: %w", err)
	}
	return &AsynqClient{client: asynq.NewClient(opt)}, nil
}

// Ensure interface is satisfied
var _ port.Client = (*AsynqClient)(nil)

func (a *AsynqClient) Enqueue(ctx context.Context, t port.Task, opts ...port.EnqueueOption) (string, error) {
	if t.Type == "" {
		return "", errors.New("asynq: task type is required")
	}
	at := asynq.NewTask(t.Type, t.Payload)
	var asynqOpts []asynq.Option
	if len(opts) > 0 {
		// Use first option only to keep port minimal; callers can pass one consolidated option.
		op := opts[0]
		if !op.ProcessAt.IsZero() {
			asynqOpts = append(asynqOpts, asynq.ProcessAt(op.ProcessAt))
		} else if op.ProcessIn > 0 {
			asynqOpts = append(asynqOpts, asynq.ProcessIn(op.ProcessIn))
		}
		if op.Queue != "" {
			asynqOpts = append(asynqOpts, asynq.Queue(op.Queue))
		}
		if op.MaxRetry > 0 {
			asynqOpts = append(asynqOpts, asynq.MaxRetry(op.MaxRetry))
		}
		if op.UniqueTTL > 0 {
			asynqOpts = append(asynqOpts, asynq.Unique(op.UniqueTTL))
		}
		if op.Retention > 0 {
			asynqOpts = append(asynqOpts, asynq.Retention(op.Retention))
		}
		if !op.Deadline.IsZero() {
			asynqOpts = append(asynqOpts, asynq.Deadline(op.Deadline))
		}
	}
	info, err := a.client.EnqueueContext(ctx, at, asynqOpts...)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (a *AsynqClient) Close() error {
	return a.client.Close()
}

// ===================== Server =====================

// AsynqServer implements port.Server using github.com/hibiken/asynq
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewAsynqServer constructs a worker server consuming the given queues with
// equal weight.
func NewAsynqServer(redisURL string, concurrency int, log *logrus.Logger, queueNames ...string) (*AsynqServer, error) {
	if redisURL == "" {
		return nil, errors.New("asynq: empty redis URL")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis URL: %w", err)
	}

	if concurrency <= 0 {
		concurrency = 10
	}
	queues := map[string]int{"default": 1}
	for _, name := range queueNames {
		queues[name] = 1
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.WithFields(logrus.Fields{"task": task.Type()}).WithError(err).Error("task failed")
		}),
	})
	return &AsynqServer{server: srv, mux: asynq.NewServeMux()}, nil
}

// Ensure interface is satisfied
var _ port.Server = (*AsynqServer)(nil)

func (s *AsynqServer) Register(taskType string, h port.Handler) {
	s.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		pt := port.Task{Type: t.Type(), Payload: t.Payload()}
		err := h(ctx, pt)
		if err == nil {
			return nil
		}
		// Translate the port's permanent-failure sentinel so asynq does not retry.
		if errors.Is(err, port.SkipRetry) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	})
}

// Run starts the server and blocks until the context is canceled, then gracefully shuts down.
func (s *AsynqServer) Run(ctx context.Context) error {
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	// Wait for cancellation
	<-ctx.Done()
	s.server.Shutdown()
	return nil
}

// Stop gracefully shuts down the server.
func (s *AsynqServer) Stop(ctx context.Context) error {
	_ = ctx // context not used by current Shutdown signature
	s.server.Shutdown()
	return nil
}
