package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"crm_messaging_backend/internal/evaluation"
	"crm_messaging_backend/platform/config"
	"crm_messaging_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultUniqueWindow = 10 * time.Minute

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues evaluations on the asynq queue. It implements
// evaluation.Trigger.
type Client struct {
	client       enqueuer
	queue        string
	uniqueWindow time.Duration
	log          *logger.Logger
}

func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newClient(asynq.NewClient(opt), cfg, log), nil
}

func newClient(e enqueuer, cfg config.SchedulerConfig, log *logger.Logger) *Client {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	window := cfg.GetEvaluationUniqueWindow()
	if window <= 0 {
		window = defaultUniqueWindow
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		client:       e,
		queue:        queue,
		uniqueWindow: window,
		log:          log,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueEvaluation queues one evaluation. The payload identifies the message,
// so a second enqueue within the unique window is reported as
// asynq.ErrDuplicateTask. The lock expires with the window; a failed or
// archived task does not block a later re-evaluation.
func (c *Client) EnqueueEvaluation(ctx context.Context, req evaluation.Request) error {
	task, err := NewEvaluateMessageTask(req)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.Unique(c.uniqueWindow),
		asynq.MaxRetry(0),
	)
	return err
}

// Schedule implements evaluation.Trigger; failures are logged.
func (c *Client) Schedule(ctx context.Context, req evaluation.Request) {
	err := c.EnqueueEvaluation(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, asynq.ErrDuplicateTask):
		c.log.Info("evaluation already queued, skipping", "message_id", req.MessageID)
	default:
		c.log.Error("failed to enqueue evaluation",
			"message_id", req.MessageID,
			"lead_id", req.LeadID,
			"error", err,
		)
	}
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}

var _ evaluation.Trigger = (*Client)(nil)
