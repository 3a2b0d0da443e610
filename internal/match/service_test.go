package match

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Mahdioshani/backend/internal/errors"
	"github.com/Mahdioshani/backend/internal/game"
	"github.com/Mahdioshani/backend/internal/game/ludo"
	"github.com/Mahdioshani/backend/internal/game/xo"
	"github.com/Mahdioshani/backend/internal/proto"
)

// fakePublisher 收集发布的事件
type fakePublisher struct {
	mu        sync.Mutex
	envelopes []*proto.EventEnvelope
}

func (f *fakePublisher) Publish(envelope *proto.EventEnvelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.envelopes = append(f.envelopes, envelope)
	return nil
}

func (f *fakePublisher) byType(eventType string) []*proto.EventEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()

	var found []*proto.EventEnvelope
	for _, e := range f.envelopes {
		if e.Type == eventType {
			found = append(found, e)
		}
	}
	return found
}

func (f *fakePublisher) count(eventType string) int {
	return len(f.byType(eventType))
}

// newTestService 创建带假发布器的控制器
func newTestService(t *testing.T, cfg Config) (*Service, *fakePublisher) {
	t.Helper()

	factory := game.NewFactory()
	factory.Register(game.GameTypeLudo, ludo.NewEngine)
	factory.Register(game.GameTypeXO, xo.NewEngine)

	publisher := &fakePublisher{}
	service := NewService(cfg, factory, publisher, nil, nil)
	if err := service.Start(); err != nil {
		t.Fatalf("启动控制器失败: %v", err)
	}
	t.Cleanup(service.Stop)

	return service, publisher
}

// testConfig 短开局延迟的测试配置
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StartDelay = time.Millisecond
	cfg.TimerWorkers = 2
	return cfg
}

// waitStart 等待开局钩子执行
func waitStart() {
	time.Sleep(50 * time.Millisecond)
}

// placeData 构造井字棋落子参数
func placeData(t *testing.T, board, row, col int) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(&xo.PlaceData{SubBoardId: board, Row: row, Col: col})
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	return data
}

// TestSetupPublishesLifecycle 测试建局事件流
func TestSetupPublishesLifecycle(t *testing.T) {
	s, publisher := newTestService(t, testConfig())
	ctx := context.Background()

	if err := s.Setup(ctx, "match-1", game.GameTypeXO, []int64{10, 20}); err != nil {
		t.Fatalf("建局失败: %v", err)
	}
	waitStart()

	if publisher.count(proto.EventMatchSetup) != 1 {
		t.Error("期望 1 条 MATCH_SETUP")
	}
	if publisher.count(proto.EventMatchStart) != 1 {
		t.Error("期望 1 条 MATCH_START")
	}
	if publisher.count(xo.EventTurnUpdated) != 1 {
		t.Error("期望开局钩子产生 1 条回合更新")
	}

	setup := publisher.byType(proto.EventMatchSetup)[0]
	if setup.StateVersion != 1 {
		t.Errorf("期望 MATCH_SETUP 版本 1, 实际 = %d", setup.StateVersion)
	}
	if s.Count() != 1 {
		t.Errorf("期望 1 个运行中对局, 实际 = %d", s.Count())
	}
}

// TestSetupDuplicateRejected 测试重复建局被拒
func TestSetupDuplicateRejected(t *testing.T) {
	s, _ := newTestService(t, testConfig())
	ctx := context.Background()

	if err := s.Setup(ctx, "match-1", game.GameTypeXO, []int64{10, 20}); err != nil {
		t.Fatalf("建局失败: %v", err)
	}

	err := s.Setup(ctx, "match-1", game.GameTypeXO, []int64{10, 20})
	if !apperrors.Is(err, apperrors.ErrMatchAlreadyExists) {
		t.Errorf("期望对局已存在错误, 实际 = %v", err)
	}
}

// TestSetupUnknownVariant 测试未知变体被拒
func TestSetupUnknownVariant(t *testing.T) {
	s, _ := newTestService(t, testConfig())

	err := s.Setup(context.Background(), "match-1", "chess", []int64{10, 20})
	if !apperrors.Is(err, apperrors.ErrUnsupportedVariant) {
		t.Errorf("期望变体不支持错误, 实际 = %v", err)
	}
}

// TestActionOutOfTurnRejected 测试非行动者动作被拒
func TestActionOutOfTurnRejected(t *testing.T) {
	s, _ := newTestService(t, testConfig())
	ctx := context.Background()

	s.Setup(ctx, "match-1", game.GameTypeXO, []int64{10, 20})
	waitStart()

	err := s.HandleAction(ctx, "match-1", 20, xo.ActionPlaceMark, placeData(t, 0, 0, 0))
	if !apperrors.Is(err, apperrors.ErrNotYourTurn) {
		t.Errorf("期望非本回合错误, 实际 = %v", err)
	}
}

// TestActionUnknownMatch 测试未知对局动作被拒
func TestActionUnknownMatch(t *testing.T) {
	s, _ := newTestService(t, testConfig())

	err := s.HandleAction(context.Background(), "match-none", 10, xo.ActionPlaceMark, placeData(t, 0, 0, 0))
	if !apperrors.Is(err, apperrors.ErrMatchNotFound) {
		t.Errorf("期望对局不存在错误, 实际 = %v", err)
	}
}

// TestTerminalActionEndsMatch 测试终局动作触发结算并清理
func TestTerminalActionEndsMatch(t *testing.T) {
	s, publisher := newTestService(t, testConfig())
	ctx := context.Background()

	s.Setup(ctx, "match-1", game.GameTypeXO, []int64{10, 20})
	waitStart()

	// 直接铺设近终局的棋面
	m, ok := s.registry.Get("match-1")
	if !ok {
		t.Fatal("期望对局存在")
	}
	snap := m.Engine.Snapshot(0).(*xo.SnapshotPayload)
	snap.SubBoards[0].Status = xo.StatusWinX
	snap.SubBoards[1].Status = xo.StatusWinX
	snap.SubBoards[2].Cells[0][0] = "X"
	snap.SubBoards[2].Cells[0][1] = "X"

	if err := s.HandleAction(ctx, "match-1", 10, xo.ActionPlaceMark, placeData(t, 2, 0, 2)); err != nil {
		t.Fatalf("落子失败: %v", err)
	}

	if publisher.count(proto.EventMatchResult) != 1 {
		t.Fatal("期望 1 条 MATCH_RESULT")
	}
	if s.Count() != 0 {
		t.Errorf("期望对局被移出注册表, 实际 = %d", s.Count())
	}

	// 终局后的命令按对局不存在处理
	err := s.HandleAction(ctx, "match-1", 20, xo.ActionPlaceMark, placeData(t, 2, 1, 0))
	if !apperrors.Is(err, apperrors.ErrMatchNotFound) {
		t.Errorf("期望对局不存在错误, 实际 = %v", err)
	}
}

// TestLeftEndsMatchBelowMinimum 测试离开后低于最低人数终局
func TestLeftEndsMatchBelowMinimum(t *testing.T) {
	s, publisher := newTestService(t, testConfig())
	ctx := context.Background()

	s.Setup(ctx, "match-1", game.GameTypeXO, []int64{10, 20})
	waitStart()

	ack, err := s.Left(ctx, "match-1", 20)
	if err != nil {
		t.Fatalf("离开失败: %v", err)
	}
	if !ack.Success || !ack.HasEndedMatch {
		t.Errorf("期望离开成功且终局, 实际 = %+v", ack)
	}

	left := publisher.byType(proto.EventPlayerLeft)
	if len(left) != 1 {
		t.Fatal("期望 1 条 PLAYER_LEFT")
	}
	payload := left[0].Payload.(*proto.PlayerLeftPayload)
	if payload.PlayerId != 20 || !payload.HasEndedMatch {
		t.Errorf("PLAYER_LEFT 载荷错误: %+v", payload)
	}

	if publisher.count(proto.EventMatchResult) != 1 {
		t.Error("期望终局发布 MATCH_RESULT")
	}

	// 重复离开不算错误
	ack, err = s.Left(ctx, "match-1", 20)
	if err != nil {
		t.Fatalf("重复离开报错: %v", err)
	}
	if ack.Success {
		t.Error("期望重复离开应答 success=false")
	}
}

// TestLeftKeepsMatchAboveMinimum 测试人数足够时离开不终局
func TestLeftKeepsMatchAboveMinimum(t *testing.T) {
	s, publisher := newTestService(t, testConfig())
	ctx := context.Background()

	s.Setup(ctx, "match-1", game.GameTypeLudo, []int64{10, 20, 30})
	waitStart()

	ack, err := s.Left(ctx, "match-1", 10)
	if err != nil {
		t.Fatalf("离开失败: %v", err)
	}
	if !ack.Success || ack.HasEndedMatch {
		t.Errorf("期望离开成功且不终局, 实际 = %+v", ack)
	}

	if publisher.count(proto.EventMatchResult) != 0 {
		t.Error("期望不发布 MATCH_RESULT")
	}
	if s.Count() != 1 {
		t.Errorf("期望对局仍在运行, 实际 = %d", s.Count())
	}

	// 离开者是行动者，回合转给下一位
	m, _ := s.registry.Get("match-1")
	if m.Engine.CurrentActor() != 20 {
		t.Errorf("期望行动者 20, 实际 = %d", m.Engine.CurrentActor())
	}
}

// TestReconnectReturnsSnapshot 测试重连返回快照
func TestReconnectReturnsSnapshot(t *testing.T) {
	s, publisher := newTestService(t, testConfig())
	ctx := context.Background()

	s.Setup(ctx, "match-1", game.GameTypeLudo, []int64{10, 20})
	waitStart()

	if err := s.Disconnect(ctx, "match-1", 10); err != nil {
		t.Fatalf("断线失败: %v", err)
	}
	if publisher.count(proto.EventPlayerDisconnect) != 1 {
		t.Error("期望 1 条 PLAYER_DISCONNECT")
	}

	snapshot, err := s.Reconnect(ctx, "match-1", 10)
	if err != nil {
		t.Fatalf("重连失败: %v", err)
	}
	if snapshot == nil {
		t.Fatal("期望返回快照")
	}

	snap := snapshot.(*ludo.SnapshotPayload)
	if snap.MatchId != "match-1" {
		t.Errorf("期望快照对局 match-1, 实际 = %s", snap.MatchId)
	}
	if snap.RemainingTime <= 0 || snap.RemainingTime > 60_000 {
		t.Errorf("期望剩余时间在 (0, 60s], 实际 = %d", snap.RemainingTime)
	}
	if publisher.count(proto.EventPlayerReconnect) != 1 {
		t.Error("期望 1 条 PLAYER_RECONNECT")
	}
}

// TestReconnectUnknownPlayer 测试陌生玩家重连被拒
func TestReconnectUnknownPlayer(t *testing.T) {
	s, _ := newTestService(t, testConfig())
	ctx := context.Background()

	s.Setup(ctx, "match-1", game.GameTypeLudo, []int64{10, 20})
	waitStart()

	if _, err := s.Reconnect(ctx, "match-1", 99); !apperrors.Is(err, apperrors.ErrPlayerNotFound) {
		t.Errorf("期望玩家不存在错误, 实际 = %v", err)
	}
	if err := s.Disconnect(ctx, "match-1", 99); !apperrors.Is(err, apperrors.ErrConflict) {
		t.Errorf("期望状态冲突错误, 实际 = %v", err)
	}
}

// TestEndMatchMissingIsNoop 测试终结不存在的对局是空操作
func TestEndMatchMissingIsNoop(t *testing.T) {
	s, publisher := newTestService(t, testConfig())

	if err := s.EndMatch(context.Background(), "match-none"); err != nil {
		t.Errorf("期望空操作, 实际 = %v", err)
	}
	if publisher.count(proto.EventMatchResult) != 0 {
		t.Error("期望不发布 MATCH_RESULT")
	}
}

// TestTurnTimeoutForcesLeave 测试超时失误达上限强制离开
func TestTurnTimeoutForcesLeave(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = time.Second
	cfg.FaultLimit = 1

	s, publisher := newTestService(t, cfg)
	ctx := context.Background()

	s.Setup(ctx, "match-1", game.GameTypeXO, []int64{10, 20})
	waitStart()

	// 行动者超时一次即达上限，两人局随之终局
	time.Sleep(3 * time.Second)

	if publisher.count(xo.EventTurnTimedOut) != 1 {
		t.Errorf("期望 1 条超时事件, 实际 = %d", publisher.count(xo.EventTurnTimedOut))
	}

	left := publisher.byType(proto.EventPlayerLeft)
	if len(left) != 1 {
		t.Fatalf("期望 1 条 PLAYER_LEFT, 实际 = %d", len(left))
	}
	if left[0].Payload.(*proto.PlayerLeftPayload).PlayerId != 10 {
		t.Errorf("期望超时者 10 被强制离开, 实际 = %+v", left[0].Payload)
	}

	if publisher.count(proto.EventMatchResult) != 1 {
		t.Error("期望终局发布 MATCH_RESULT")
	}
	if s.Count() != 0 {
		t.Errorf("期望对局被清理, 实际 = %d", s.Count())
	}
}

// TestTurnTimeoutAutoPlays 测试超时未达上限时代打续局
func TestTurnTimeoutAutoPlays(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = time.Second
	cfg.FaultLimit = 5

	s, publisher := newTestService(t, cfg)
	ctx := context.Background()

	s.Setup(ctx, "match-1", game.GameTypeXO, []int64{10, 20})
	waitStart()

	time.Sleep(3 * time.Second)

	if publisher.count(xo.EventTurnTimedOut) == 0 {
		t.Error("期望产生超时事件")
	}
	if publisher.count(xo.EventCellPlaced) == 0 {
		t.Error("期望代打产生落子事件")
	}
	if s.Count() != 1 {
		t.Errorf("期望对局继续运行, 实际 = %d", s.Count())
	}
}
