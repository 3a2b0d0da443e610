package match

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	apperrors "github.com/Mahdioshani/backend/internal/errors"
	"github.com/Mahdioshani/backend/internal/game"
	"github.com/Mahdioshani/backend/internal/proto"
	"github.com/Mahdioshani/backend/internal/timer"
)

// EventPublisher 事件发布接口
type EventPublisher interface {
	Publish(envelope *proto.EventEnvelope) error
}

// ResultArchiver 终局结算归档接口
type ResultArchiver interface {
	Save(ctx context.Context, matchId string, gameType string, result *game.Result) error
}

// PresenceStore 玩家在线状态存储接口
type PresenceStore interface {
	Init(ctx context.Context, matchId string, playerIds []int64) error
	SetOnline(ctx context.Context, matchId string, playerId int64, online bool) error
	Clear(ctx context.Context, matchId string) error
}

// Config 生命周期控制参数
type Config struct {
	TurnTimeout    time.Duration // 单回合时限
	FaultLimit     int           // 超时失误上限，达到即强制离开
	StartDelay     time.Duration // MATCH_START 之后到首回合的延迟
	TimerWorkers   int           // 超时处理协程数
	ArchiveTimeout time.Duration // 结算归档超时
}

// DefaultConfig 默认生命周期参数
func DefaultConfig() Config {
	return Config{
		TurnTimeout:    60 * time.Second,
		FaultLimit:     5,
		StartDelay:     500 * time.Millisecond,
		TimerWorkers:   10,
		ArchiveTimeout: 5 * time.Second,
	}
}

// Service 对局生命周期控制器
// 持有变体引擎接口，负责回合时限、事件发布、终局结算，从不触碰变体内部规则
type Service struct {
	registry  *Registry
	factory   *game.Factory
	publisher EventPublisher
	scheduler *timer.TurnScheduler
	archiver  ResultArchiver // 可为 nil
	presence  PresenceStore  // 可为 nil
	cfg       Config
	logger    *slog.Logger
}

// NewService 创建生命周期控制器
func NewService(cfg Config, factory *game.Factory, publisher EventPublisher, archiver ResultArchiver, presence PresenceStore) *Service {
	s := &Service{
		registry:  NewRegistry(),
		factory:   factory,
		publisher: publisher,
		archiver:  archiver,
		presence:  presence,
		cfg:       cfg,
		logger:    slog.Default().With("component", "MatchService"),
	}
	s.scheduler = timer.NewTurnScheduler(cfg.TimerWorkers, s.handleTurnTimeout)

	return s
}

// Start 启动控制器 (回合计时调度器)
func (s *Service) Start() error {
	return s.scheduler.Start()
}

// Stop 停止控制器
func (s *Service) Stop() {
	s.scheduler.Stop()
}

// Count 当前运行中的对局数
func (s *Service) Count() int {
	return s.registry.Count()
}

// Setup 建局: 创建引擎、登记对局、发布 MATCH_SETUP，随后立即开局
func (s *Service) Setup(ctx context.Context, matchId string, gameType game.GameType, playerIds []int64) error {
	if _, ok := s.registry.Get(matchId); ok {
		return apperrors.ErrMatchAlreadyExists
	}

	engine, err := s.factory.CreateEngine(gameType)
	if err != nil {
		return err
	}

	if err := engine.Setup(matchId, playerIds); err != nil {
		return err
	}

	m := NewMatch(matchId, gameType, engine)
	if _, loaded := s.registry.Store(m); loaded {
		return apperrors.ErrMatchAlreadyExists
	}

	s.logger.Info("Match created",
		"matchId", matchId,
		"gameType", string(gameType),
		"playerCount", len(playerIds))

	s.publish(matchId, proto.EventMatchSetup, &proto.MatchSetupPayload{
		MatchId:   matchId,
		GameType:  string(gameType),
		PlayerIds: playerIds,
	}, engine.Base().Version())

	if s.presence != nil {
		if err := s.presence.Init(ctx, matchId, playerIds); err != nil {
			s.logger.Error("Failed to init presence", "matchId", matchId, "error", err)
		}
	}

	return s.StartMatch(ctx, matchId)
}

// StartMatch 开局: 发布 MATCH_START，延迟触发首回合
func (s *Service) StartMatch(ctx context.Context, matchId string) error {
	m, ok := s.registry.Get(matchId)
	if !ok {
		return apperrors.ErrMatchNotFound
	}

	m.Lock()
	if m.Ended() {
		m.Unlock()
		return apperrors.ErrMatchNotFound
	}
	s.publish(matchId, proto.EventMatchStart, m.Engine.Snapshot(0), m.Engine.Base().Version())
	m.Unlock()

	// 给订阅方留出处理 MATCH_START 的时间窗，再进入首回合
	time.AfterFunc(s.cfg.StartDelay, func() {
		s.runStartHook(matchId)
	})

	return nil
}

// runStartHook 首回合钩子
func (s *Service) runStartHook(matchId string) {
	m, ok := s.registry.Get(matchId)
	if !ok {
		return
	}

	m.Lock()
	defer m.Unlock()

	if m.Ended() {
		return
	}

	events := m.Engine.OnStart()
	s.publishEvents(matchId, events)

	if actor := m.Engine.CurrentActor(); actor != 0 {
		s.scheduler.Arm(matchId, actor, s.cfg.TurnTimeout)
	}
}

// HandleAction 处理玩家动作
// 行动权校验在这里做，动作语义由变体引擎负责
func (s *Service) HandleAction(ctx context.Context, matchId string, playerId int64, actionName string, data json.RawMessage) error {
	m, ok := s.registry.Get(matchId)
	if !ok {
		return apperrors.ErrMatchNotFound
	}

	m.Lock()
	defer m.Unlock()

	if m.Ended() {
		return apperrors.ErrMatchNotFound
	}

	if m.Engine.CurrentActor() != playerId {
		return apperrors.ErrNotYourTurn
	}

	events, err := m.Engine.HandleAction(playerId, actionName, data)
	if err != nil {
		return err
	}

	s.publishEvents(matchId, events)
	s.afterMutation(ctx, m)

	return nil
}

// Reconnect 玩家重连，返回全量快照
func (s *Service) Reconnect(ctx context.Context, matchId string, playerId int64) (any, error) {
	m, ok := s.registry.Get(matchId)
	if !ok {
		return nil, apperrors.ErrMatchNotFound
	}

	m.Lock()
	defer m.Unlock()

	if m.Ended() {
		return nil, apperrors.ErrMatchNotFound
	}

	if !m.Engine.Base().ApplyReconnect(playerId) {
		return nil, apperrors.ErrPlayerNotFound
	}

	s.publish(matchId, proto.EventPlayerReconnect, &proto.PlayerConnPayload{PlayerId: playerId}, m.Engine.Base().Version())
	s.setPresence(ctx, matchId, playerId, true)

	return m.Engine.Snapshot(s.scheduler.Remaining(matchId)), nil
}

// Disconnect 玩家断线
// 断线不影响回合推进，回合照常计时
func (s *Service) Disconnect(ctx context.Context, matchId string, playerId int64) error {
	m, ok := s.registry.Get(matchId)
	if !ok {
		return apperrors.ErrMatchNotFound
	}

	m.Lock()
	defer m.Unlock()

	if m.Ended() {
		return apperrors.ErrMatchNotFound
	}

	if !m.Engine.Base().ApplyDisconnect(playerId) {
		return apperrors.ErrConflict
	}

	s.publish(matchId, proto.EventPlayerDisconnect, &proto.PlayerConnPayload{PlayerId: playerId}, m.Engine.Base().Version())
	s.setPresence(ctx, matchId, playerId, false)

	return nil
}

// Left 玩家主动离开
// 对局不存在或已终局时不算错误，返回失败应答即可 (网关可能重复投递)
func (s *Service) Left(ctx context.Context, matchId string, playerId int64) (*proto.LeftAck, error) {
	ack := &proto.LeftAck{MatchId: matchId, PlayerId: playerId}

	m, ok := s.registry.Get(matchId)
	if !ok {
		s.logger.Info("Left ignored, match already gone", "matchId", matchId, "playerId", playerId)
		return ack, nil
	}

	m.Lock()
	defer m.Unlock()

	if m.Ended() {
		return ack, nil
	}

	return s.applyLeftLocked(ctx, m, playerId)
}

// applyLeftLocked 离开处理主体 (须持锁调用)
// 超时失误达到上限的强制离开也走这条路径
func (s *Service) applyLeftLocked(ctx context.Context, m *Match, playerId int64) (*proto.LeftAck, error) {
	ack := &proto.LeftAck{MatchId: m.Id, PlayerId: playerId}

	wasActor := m.Engine.CurrentActor() == playerId

	if !m.Engine.Base().ApplyLeft(playerId) {
		s.logger.Warn("Left ignored, player not in match", "matchId", m.Id, "playerId", playerId)
		return ack, nil
	}
	leftVersion := m.Engine.Base().Version()

	events := m.Engine.OnPlayerLeft(playerId)

	hasEnded := m.Engine.Base().ActiveCount() < m.Engine.MinimumPlayers() || m.Engine.IsTerminal()

	s.publish(m.Id, proto.EventPlayerLeft, &proto.PlayerLeftPayload{
		PlayerId:      playerId,
		HasEndedMatch: hasEnded,
	}, leftVersion)
	s.publishEvents(m.Id, events)
	s.setPresence(ctx, m.Id, playerId, false)

	if hasEnded {
		s.endMatchLocked(ctx, m)
	} else if wasActor {
		if actor := m.Engine.CurrentActor(); actor != 0 {
			s.scheduler.Arm(m.Id, actor, s.cfg.TurnTimeout)
		}
	}

	ack.Success = true
	ack.HasEndedMatch = hasEnded
	return ack, nil
}

// EndMatch 强制终局
// 对局不存在时记日志返回，不算错误
func (s *Service) EndMatch(ctx context.Context, matchId string) error {
	m, ok := s.registry.Get(matchId)
	if !ok {
		s.logger.Warn("Cannot end match, state not found", "matchId", matchId)
		return nil
	}

	m.Lock()
	defer m.Unlock()

	if m.Ended() {
		return nil
	}

	s.endMatchLocked(ctx, m)
	return nil
}

// endMatchLocked 终局处理 (须持锁调用)
// 标记终局、撤销回合计时、结算并发布 MATCH_RESULT、移出注册表
func (s *Service) endMatchLocked(ctx context.Context, m *Match) {
	m.MarkEnded()
	s.scheduler.Cancel(m.Id)

	result := m.Engine.Result()
	s.publish(m.Id, proto.EventMatchResult, result, m.Engine.Base().Version())

	s.registry.Remove(m.Id)

	s.logger.Info("Match ended", "matchId", m.Id, "gameType", string(m.GameType))

	if s.presence != nil {
		if err := s.presence.Clear(ctx, m.Id); err != nil {
			s.logger.Error("Failed to clear presence", "matchId", m.Id, "error", err)
		}
	}

	if s.archiver != nil {
		matchId, gameType := m.Id, string(m.GameType)
		go func() {
			archiveCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ArchiveTimeout)
			defer cancel()

			if err := s.archiver.Save(archiveCtx, matchId, gameType, result); err != nil {
				s.logger.Error("Failed to archive match result", "matchId", matchId, "error", err)
			}
		}()
	}
}

// handleTurnTimeout 回合超时回调 (调度器协程池调用)
// 重新校验行动者，记一次失误；达到上限强制离开，否则代打后继续
func (s *Service) handleTurnTimeout(matchId string, playerId int64) {
	m, ok := s.registry.Get(matchId)
	if !ok {
		return
	}

	m.Lock()
	defer m.Unlock()

	if m.Ended() {
		return
	}

	// 期限在途期间回合已经推进，过期信号作废
	if m.Engine.CurrentActor() != playerId {
		return
	}

	ctx := context.Background()

	events := m.Engine.RecordFault(playerId)
	s.publishEvents(matchId, events)

	p := m.Engine.Base().Player(playerId)
	if p == nil {
		return
	}

	s.logger.Info("Turn timed out",
		"matchId", matchId,
		"playerId", playerId,
		"faultCount", p.FaultCount)

	if p.FaultCount >= s.cfg.FaultLimit {
		if _, err := s.applyLeftLocked(ctx, m, playerId); err != nil {
			s.logger.Error("Failed to force-leave player", "matchId", matchId, "playerId", playerId, "error", err)
		}
		return
	}

	events = m.Engine.AutoPlay(playerId)
	s.publishEvents(matchId, events)
	s.afterMutation(ctx, m)
}

// afterMutation 变更后收尾: 终局则结束，否则为新行动者重新计时
func (s *Service) afterMutation(ctx context.Context, m *Match) {
	if m.Engine.IsTerminal() {
		s.endMatchLocked(ctx, m)
		return
	}

	if actor := m.Engine.CurrentActor(); actor != 0 {
		s.scheduler.Arm(m.Id, actor, s.cfg.TurnTimeout)
	}
}

// publish 发布单个生命周期事件
func (s *Service) publish(matchId string, eventType string, payload any, version int64) {
	envelope := &proto.EventEnvelope{
		MatchId:      matchId,
		Type:         eventType,
		Payload:      payload,
		StateVersion: version,
	}

	if err := s.publisher.Publish(envelope); err != nil {
		s.logger.Error("Failed to publish event",
			"matchId", matchId,
			"type", eventType,
			"error", err)
	}
}

// publishEvents 发布引擎产出的领域事件
func (s *Service) publishEvents(matchId string, events []game.Event) {
	for _, ev := range events {
		s.publish(matchId, ev.Type, ev.Payload, ev.Version)
	}
}

// setPresence 更新在线状态，失败只记日志
func (s *Service) setPresence(ctx context.Context, matchId string, playerId int64, online bool) {
	if s.presence == nil {
		return
	}
	if err := s.presence.SetOnline(ctx, matchId, playerId, online); err != nil {
		s.logger.Error("Failed to update presence",
			"matchId", matchId,
			"playerId", playerId,
			"error", err)
	}
}
