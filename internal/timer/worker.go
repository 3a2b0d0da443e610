package timer

import (
	"context"
	"log/slog"
	"sync"
)

// fireFunc 到期处理函数
type fireFunc func(d *deadline)

// WorkerPool 到期处理协程池
type WorkerPool struct {
	workerCount  int
	deadlineChan chan *deadline
	fire         fireFunc
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       *slog.Logger
}

// NewWorkerPool 创建到期处理协程池
func NewWorkerPool(workerCount int, fire fireFunc) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount:  workerCount,
		deadlineChan: make(chan *deadline, workerCount*2),
		fire:         fire,
		ctx:          ctx,
		cancel:       cancel,
		logger:       slog.Default().With("component", "TimerWorkerPool"),
	}
}

// Start 启动协程池
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	wp.logger.Info("Timer worker pool started", "workerCount", wp.workerCount)
}

// worker 工作协程
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("Timer worker exiting", "workerID", id)
			return

		case d := <-wp.deadlineChan:
			if d == nil {
				continue
			}

			wp.execute(id, d)
		}
	}
}

// execute 执行到期处理，回调 panic 不能拖垮协程池
func (wp *WorkerPool) execute(workerID int, d *deadline) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("Deadline handler panicked",
				"workerID", workerID,
				"matchId", d.matchId,
				"playerId", d.playerId,
				"panic", r)
		}
	}()

	wp.fire(d)
}

// Submit 提交到期期限
func (wp *WorkerPool) Submit(d *deadline) {
	select {
	case wp.deadlineChan <- d:
	case <-wp.ctx.Done():
		wp.logger.Warn("Worker pool closed, deadline dropped", "matchId", d.matchId)
	default:
		wp.logger.Warn("Deadline channel full, handling may be delayed", "matchId", d.matchId)
		select {
		case wp.deadlineChan <- d:
		case <-wp.ctx.Done():
		}
	}
}

// SubmitBatch 批量提交
func (wp *WorkerPool) SubmitBatch(deadlines []*deadline) {
	for _, d := range deadlines {
		wp.Submit(d)
	}
}

// Stop 停止协程池
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
	close(wp.deadlineChan)

	wp.logger.Info("Timer worker pool stopped")
}
