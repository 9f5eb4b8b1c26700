package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/pkg/logger"
)

type touchJob struct {
	userID uint
	at     time.Time
}

// LastSeenRecorder 异步更新 users.last_seen，队列满时丢弃
type LastSeenRecorder struct {
	userRepo repository.UserRepository
	ch       chan touchJob

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	processed atomic.Int64
	dropped   atomic.Int64
}

func NewLastSeenRecorder(userRepo repository.UserRepository, queueSize int) *LastSeenRecorder {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &LastSeenRecorder{userRepo: userRepo, ch: make(chan touchJob, queueSize)}
}

// Start 启动 worker；返回的函数关闭队列并等待排空（受 ctx 约束）
func (r *LastSeenRecorder) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for job := range r.ch {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := r.userRepo.TouchLastSeen(ctx, job.userID, job.at); err != nil {
					logger.Warn("touch last_seen failed", zap.Uint("user", job.userID), zap.Error(err))
				}
				cancel()
				r.processed.Add(1)
			}
		}()
	}
	return func(ctx context.Context) error {
		r.mu.Lock()
		if !r.stopped {
			r.stopped = true
			close(r.ch)
		}
		r.mu.Unlock()

		done := make(chan struct{})
		go func() { r.wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Touch 记录用户活跃时间
func (r *LastSeenRecorder) Touch(userID uint, at time.Time) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return ErrRecorderStop
	}
	select {
	case r.ch <- touchJob{userID: userID, at: at.UTC()}:
	default:
		r.dropped.Add(1)
		logger.Warn("last_seen queue full, drop", zap.Uint("user", userID))
	}
	return nil
}

// Processed 已处理条数（采样值）
func (r *LastSeenRecorder) Processed() int64 { return r.processed.Load() }

// Dropped 因队列满被丢弃的条数
func (r *LastSeenRecorder) Dropped() int64 { return r.dropped.Load() }

// QueueLen 返回当前队列长度（采样值）。
func (r *LastSeenRecorder) QueueLen() int { return len(r.ch) }
