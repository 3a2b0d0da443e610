package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// FaultFunc 回合超时回调
// 在协程池中执行，由调用方自行加锁和校验行动者
type FaultFunc func(matchId string, playerId int64)

// TurnScheduler 回合计时调度器
// 每个对局同一时刻至多一条期限，重复武装会替换旧期限。
// 到期时只有代号仍然有效的期限会触发回调，防止旧定时器误伤新回合
type TurnScheduler struct {
	wheel      *TimeWheel
	workerPool *WorkerPool
	onFault    FaultFunc

	mu      sync.Mutex
	handles map[string]*deadline // key: matchId
	gen     uint64

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    *slog.Logger
	running   bool
	runningMu sync.RWMutex
}

// NewTurnScheduler 创建回合计时调度器
func NewTurnScheduler(workerCount int, onFault FaultFunc) *TurnScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &TurnScheduler{
		wheel:   NewTimeWheel(),
		onFault: onFault,
		handles: make(map[string]*deadline),
		ctx:     ctx,
		cancel:  cancel,
		logger:  slog.Default().With("component", "TurnScheduler"),
	}
	s.workerPool = NewWorkerPool(workerCount, s.fire)

	return s
}

// Start 启动调度器
func (s *TurnScheduler) Start() error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return fmt.Errorf("调度器已经在运行中")
	}
	s.running = true
	s.runningMu.Unlock()

	s.workerPool.Start()

	s.wg.Add(1)
	go s.tickLoop()

	s.logger.Info("Turn scheduler started")

	return nil
}

// tickLoop 时钟循环协程
func (s *TurnScheduler) tickLoop() {
	defer s.wg.Done()

	ticker := s.wheel.Ticker()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Turn scheduler tick loop exiting")
			return

		case <-ticker.C:
			s.onTick()
		}
	}
}

// onTick 时钟触发处理
func (s *TurnScheduler) onTick() {
	expired := s.wheel.Tick()
	if len(expired) == 0 {
		return
	}

	s.logger.Debug("Turn deadlines expired",
		"currentSlot", s.wheel.CurrentSlot(),
		"count", len(expired))

	s.workerPool.SubmitBatch(expired)
}

// fire 到期处理 (协程池回调)
// 校验代号: 期限在轮上等待期间被替换或取消则静默丢弃
func (s *TurnScheduler) fire(d *deadline) {
	s.mu.Lock()
	current, ok := s.handles[d.matchId]
	if !ok || current.gen != d.gen {
		s.mu.Unlock()
		return
	}
	delete(s.handles, d.matchId)
	s.mu.Unlock()

	s.onFault(d.matchId, d.playerId)
}

// Stop 停止调度器
func (s *TurnScheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.wheel.Stop()
	s.workerPool.Stop()

	s.logger.Info("Turn scheduler stopped")
}

// Arm 武装对局的回合期限，替换已有期限
func (s *TurnScheduler) Arm(matchId string, playerId int64, duration time.Duration) {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return
	}

	delay := int(duration / time.Second)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.handles[matchId]; ok {
		s.wheel.Remove(matchId, old.slot)
	}

	s.gen++
	d := &deadline{
		matchId:  matchId,
		playerId: playerId,
		gen:      s.gen,
		armedAt:  time.Now(),
		duration: duration,
	}
	d.slot = s.wheel.Add(d, delay)
	s.handles[matchId] = d

	s.logger.Debug("Turn deadline armed",
		"matchId", matchId,
		"playerId", playerId,
		"duration", duration)
}

// Cancel 取消对局的回合期限
func (s *TurnScheduler) Cancel(matchId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.handles[matchId]; ok {
		s.wheel.Remove(matchId, d.slot)
		delete(s.handles, matchId)
	}
}

// Remaining 对局当前回合的剩余时间，没有期限时返回 0
func (s *TurnScheduler) Remaining(matchId string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.handles[matchId]
	if !ok {
		return 0
	}

	remaining := d.duration - time.Since(d.armedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsRunning 检查调度器是否运行中
func (s *TurnScheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	return s.running
}

// Stats 获取调度器统计信息
func (s *TurnScheduler) Stats() map[string]any {
	s.mu.Lock()
	armed := len(s.handles)
	s.mu.Unlock()

	return map[string]any{
		"running":     s.IsRunning(),
		"currentSlot": s.wheel.CurrentSlot(),
		"armedCount":  armed,
		"wheelCount":  s.wheel.TotalCount(),
	}
}
