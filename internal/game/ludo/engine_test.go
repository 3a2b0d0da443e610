package ludo

import (
	"encoding/json"
	"testing"

	apperrors "github.com/Mahdioshani/backend/internal/errors"
	"github.com/Mahdioshani/backend/internal/game"
)

// newTestEngine 创建已开局的测试引擎
func newTestEngine(t *testing.T, ids ...int64) *Engine {
	t.Helper()

	e := &Engine{}
	if err := e.Setup("match-1", ids); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	e.OnStart()
	return e
}

// cheatData 构造作弊动作参数
func cheatData(t *testing.T, code string) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(&CheatData{Code: code})
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	return data
}

// TestSetupPlayerCount 测试开局人数校验
func TestSetupPlayerCount(t *testing.T) {
	e := &Engine{}

	if err := e.Setup("match-1", []int64{1}); !apperrors.Is(err, apperrors.ErrInvalidPlayerCount) {
		t.Errorf("期望人数非法错误, 实际 = %v", err)
	}
	if err := e.Setup("match-1", []int64{1, 2, 3, 4, 5}); !apperrors.Is(err, apperrors.ErrInvalidPlayerCount) {
		t.Errorf("期望人数非法错误, 实际 = %v", err)
	}
	if err := e.Setup("match-1", []int64{1, 2}); err != nil {
		t.Errorf("期望2人开局成功, 实际 = %v", err)
	}
}

// TestOnStartFirstActor 测试开局首位行动者
func TestOnStartFirstActor(t *testing.T) {
	e := &Engine{}
	if err := e.Setup("match-1", []int64{10, 20}); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}

	if e.Base().Version() != 1 {
		t.Errorf("期望初始版本 1, 实际 = %d", e.Base().Version())
	}

	events := e.OnStart()
	if len(events) != 1 || events[0].Type != EventTurnUpdated {
		t.Fatalf("期望 1 条回合更新事件, 实际 = %+v", events)
	}
	if events[0].Version != 2 {
		t.Errorf("期望事件版本 2, 实际 = %d", events[0].Version)
	}
	if e.CurrentActor() != 10 {
		t.Errorf("期望首位行动者 10, 实际 = %d", e.CurrentActor())
	}
	if e.state.LastTurn.Step != StepAwaitingRoll {
		t.Errorf("期望等待掷骰, 实际 = %v", e.state.LastTurn.Step)
	}
}

// TestRollWithoutOptionsPassesTurn 测试无合法走法时回合推进
func TestRollWithoutOptionsPassesTurn(t *testing.T) {
	e := newTestEngine(t, 10, 20)

	// 所有棋子在场外，非6点没有走法
	events, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_3"))
	if err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("期望 2 条事件, 实际 = %d", len(events))
	}
	if events[0].Type != EventRolledDice || events[1].Type != EventTurnUpdated {
		t.Errorf("期望掷骰+回合更新, 实际 = %s, %s", events[0].Type, events[1].Type)
	}
	if e.CurrentActor() != 20 {
		t.Errorf("期望回合转给 20, 实际 = %d", e.CurrentActor())
	}
}

// TestRollSixEntersAndKeepsTurn 测试掷6进场并保留回合
func TestRollSixEntersAndKeepsTurn(t *testing.T) {
	e := newTestEngine(t, 10, 20)

	events, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_6"))
	if err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("期望只有掷骰事件, 实际 = %d 条", len(events))
	}

	rolled := events[0].Payload.(*RollResult)
	if rolled.DiceValue != 6 {
		t.Errorf("期望点数 6, 实际 = %d", rolled.DiceValue)
	}
	if len(rolled.Options) != PiecesPerPlayer {
		t.Errorf("期望 %d 个进场选项, 实际 = %d", PiecesPerPlayer, len(rolled.Options))
	}
	if e.state.LastTurn.Step != StepAwaitingMove {
		t.Errorf("期望等待选子, 实际 = %v", e.state.LastTurn.Step)
	}

	// 选子进场，掷出6保留回合
	moveData, _ := json.Marshal(&SelectPieceData{PieceId: 1})
	events, err = e.HandleAction(10, ActionSelectPiece, moveData)
	if err != nil {
		t.Fatalf("选子失败: %v", err)
	}

	piece := e.state.Players[0].Pieces[0]
	if piece.Status != PiecePlaying || piece.Position.Index != 0 {
		t.Errorf("期望棋子进场在入场点, 实际 = %v %+v", piece.Status, piece.Position)
	}
	if e.CurrentActor() != 10 {
		t.Errorf("期望保留回合, 实际行动者 = %d", e.CurrentActor())
	}
	if e.state.LastTurn.Step != StepAwaitingRoll {
		t.Errorf("期望回到掷骰阶段, 实际 = %v", e.state.LastTurn.Step)
	}

	last := events[len(events)-1]
	if last.Type != EventTurnUpdated {
		t.Errorf("期望最后一条是回合更新, 实际 = %s", last.Type)
	}
}

// TestSelectPieceOutsideOptions 测试选了不在选项内的棋子
func TestSelectPieceOutsideOptions(t *testing.T) {
	e := newTestEngine(t, 10, 20)

	if _, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_6")); err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	moveData, _ := json.Marshal(&SelectPieceData{PieceId: 9})
	if _, err := e.HandleAction(10, ActionSelectPiece, moveData); !apperrors.Is(err, apperrors.ErrIllegalOption) {
		t.Errorf("期望非法选项错误, 实际 = %v", err)
	}
}

// TestRollDuringMovePhase 测试选子阶段掷骰被拒
func TestRollDuringMovePhase(t *testing.T) {
	e := newTestEngine(t, 10, 20)

	if _, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_6")); err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	if _, err := e.HandleAction(10, ActionRollDice, nil); !apperrors.Is(err, apperrors.ErrInvalidAction) {
		t.Errorf("期望动作非法错误, 实际 = %v", err)
	}
}

// TestCaptureOnNormalCell 测试普通格吃子
func TestCaptureOnNormalCell(t *testing.T) {
	e := newTestEngine(t, 10, 20)
	s := e.state

	// 10 的棋子在 5 号格，20 的棋子在 9 号格 (非安全格)
	s.Players[0].Pieces[0].Status = PiecePlaying
	s.Players[0].Pieces[0].Position = &Position{Type: MainRoad, Index: 5}
	s.Players[1].Pieces[0].Status = PiecePlaying
	s.Players[1].Pieces[0].Position = &Position{Type: MainRoad, Index: 9}

	if _, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_4")); err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	moveData, _ := json.Marshal(&SelectPieceData{PieceId: 1})
	events, err := e.HandleAction(10, ActionSelectPiece, moveData)
	if err != nil {
		t.Fatalf("选子失败: %v", err)
	}

	var captured bool
	for _, ev := range events {
		if ev.Type == EventPieceCaptured {
			captured = true
			payload := ev.Payload.(*PieceCapturedPayload)
			if payload.PlayerId != 20 || payload.CapturedBy != 10 {
				t.Errorf("吃子事件错误: %+v", payload)
			}
		}
	}
	if !captured {
		t.Fatal("期望产生吃子事件")
	}

	victim := s.Players[1].Pieces[0]
	if victim.Status != PieceOut || victim.Position != nil {
		t.Errorf("期望被吃棋子回到场外, 实际 = %v %+v", victim.Status, victim.Position)
	}
	if e.CurrentActor() != 10 {
		t.Errorf("期望吃子后保留回合, 实际行动者 = %d", e.CurrentActor())
	}
}

// TestNoCaptureOnSafeCell 测试安全格不吃子
func TestNoCaptureOnSafeCell(t *testing.T) {
	e := newTestEngine(t, 10, 20)
	s := e.state

	// 8 号格是安全格
	s.Players[0].Pieces[0].Status = PiecePlaying
	s.Players[0].Pieces[0].Position = &Position{Type: MainRoad, Index: 5}
	s.Players[1].Pieces[0].Status = PiecePlaying
	s.Players[1].Pieces[0].Position = &Position{Type: MainRoad, Index: 8}

	if _, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_3")); err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	moveData, _ := json.Marshal(&SelectPieceData{PieceId: 1})
	events, err := e.HandleAction(10, ActionSelectPiece, moveData)
	if err != nil {
		t.Fatalf("选子失败: %v", err)
	}

	for _, ev := range events {
		if ev.Type == EventPieceCaptured {
			t.Fatal("期望安全格不产生吃子事件")
		}
	}
	if s.Players[1].Pieces[0].Status != PiecePlaying {
		t.Error("期望安全格上的棋子不被吃")
	}
	if e.CurrentActor() != 20 {
		t.Errorf("期望回合转给 20, 实际 = %d", e.CurrentActor())
	}
}

// TestTripleSixForfeitsTurn 测试三连6没收回合
func TestTripleSixForfeitsTurn(t *testing.T) {
	e := newTestEngine(t, 10, 20)
	e.state.Players[0].ConsecutiveSixes = 2

	events, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_6"))
	if err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	rolled := events[0].Payload.(*RollResult)
	if rolled.ConsecutiveSixes != 3 {
		t.Errorf("期望连续6计数 3, 实际 = %d", rolled.ConsecutiveSixes)
	}
	if len(rolled.Options) != 0 {
		t.Errorf("期望没收后无选项, 实际 = %d", len(rolled.Options))
	}
	if e.CurrentActor() != 20 {
		t.Errorf("期望回合转给 20, 实际 = %d", e.CurrentActor())
	}
	if e.state.Players[0].ConsecutiveSixes != 0 {
		t.Errorf("期望计数清零, 实际 = %d", e.state.Players[0].ConsecutiveSixes)
	}
}

// TestSideLaneExactFinish 测试终点道恰好到达
func TestSideLaneExactFinish(t *testing.T) {
	e := newTestEngine(t, 10, 20)
	s := e.state

	s.Players[0].Pieces[0].Status = PiecePlaying
	s.Players[0].Pieces[0].Position = &Position{Type: SideRoad, Index: 2}

	if _, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_3")); err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	moveData, _ := json.Marshal(&SelectPieceData{PieceId: 1})
	if _, err := e.HandleAction(10, ActionSelectPiece, moveData); err != nil {
		t.Fatalf("选子失败: %v", err)
	}

	piece := s.Players[0].Pieces[0]
	if piece.Status != PieceFinished {
		t.Errorf("期望棋子完成, 实际 = %v", piece.Status)
	}
	if e.CurrentActor() != 10 {
		t.Errorf("期望到达终点保留回合, 实际 = %d", e.CurrentActor())
	}
}

// TestSideLaneOvershootIllegal 测试终点道越过终点无走法
func TestSideLaneOvershootIllegal(t *testing.T) {
	e := newTestEngine(t, 10, 20)
	s := e.state

	s.Players[0].Pieces[0].Status = PiecePlaying
	s.Players[0].Pieces[0].Position = &Position{Type: SideRoad, Index: 2}

	events, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_4"))
	if err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	rolled := events[0].Payload.(*RollResult)
	if len(rolled.Options) != 0 {
		t.Errorf("期望无走法, 实际 = %d", len(rolled.Options))
	}
	if e.CurrentActor() != 20 {
		t.Errorf("期望回合推进, 实际 = %d", e.CurrentActor())
	}
}

// TestWinAndResult 测试胜利判定与结算
func TestWinAndResult(t *testing.T) {
	e := newTestEngine(t, 10, 20)
	s := e.state

	for i := 0; i < 3; i++ {
		s.Players[0].Pieces[i].Status = PieceFinished
		s.Players[0].Pieces[i].Position = nil
	}
	s.Players[0].Pieces[3].Status = PiecePlaying
	s.Players[0].Pieces[3].Position = &Position{Type: SideRoad, Index: 4}

	if _, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_1")); err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}
	moveData, _ := json.Marshal(&SelectPieceData{PieceId: 4})
	if _, err := e.HandleAction(10, ActionSelectPiece, moveData); err != nil {
		t.Fatalf("选子失败: %v", err)
	}

	if !e.IsTerminal() {
		t.Fatal("期望终局")
	}

	result := e.Result()
	if len(result.PlayerResults) != 2 {
		t.Fatalf("期望 2 条结算, 实际 = %d", len(result.PlayerResults))
	}

	winner := result.PlayerResults[0]
	if winner.PlayerId != 10 || winner.Outcome != game.OutcomeWon || winner.Rank != 1 {
		t.Errorf("胜者结算错误: %+v", winner)
	}
	if winner.Points != 1 {
		t.Errorf("期望2人局胜分 1, 实际 = %v", winner.Points)
	}

	loser := result.PlayerResults[1]
	if loser.PlayerId != 20 || loser.Outcome != game.OutcomeLost || loser.Rank != 2 {
		t.Errorf("败者结算错误: %+v", loser)
	}
	if loser.Points != game.LossPoints {
		t.Errorf("期望保底分 %v, 实际 = %v", game.LossPoints, loser.Points)
	}
}

// TestPlayerLeftResetsAndAdvances 测试离开者清子并让出回合
func TestPlayerLeftResetsAndAdvances(t *testing.T) {
	e := newTestEngine(t, 10, 20, 30)
	s := e.state

	s.Players[0].Pieces[0].Status = PiecePlaying
	s.Players[0].Pieces[0].Position = &Position{Type: MainRoad, Index: 20}

	if !e.Base().ApplyLeft(10) {
		t.Fatal("期望离开成功")
	}
	events := e.OnPlayerLeft(10)

	for _, piece := range s.Players[0].Pieces {
		if piece.Status != PieceOut {
			t.Errorf("期望棋子清回场外, 实际 = %v", piece.Status)
		}
	}
	if e.CurrentActor() != 20 {
		t.Errorf("期望回合转给 20, 实际 = %d", e.CurrentActor())
	}
	if len(events) != 1 || events[0].Type != EventTurnUpdated {
		t.Errorf("期望 1 条回合更新事件, 实际 = %+v", events)
	}
}

// TestPlayerLeftAbandonedResult 测试弃赛玩家的结算
func TestPlayerLeftAbandonedResult(t *testing.T) {
	e := newTestEngine(t, 10, 20)

	e.Base().ApplyLeft(20)
	e.OnPlayerLeft(20)

	result := e.Result()
	if result.PlayerResults[0].PlayerId != 10 || result.PlayerResults[0].Outcome != game.OutcomeWon {
		t.Errorf("期望唯一在局玩家判胜, 实际 = %+v", result.PlayerResults[0])
	}
	if result.PlayerResults[1].Outcome != game.OutcomeAbandoned || result.PlayerResults[1].Points != 0 {
		t.Errorf("期望弃赛结算, 实际 = %+v", result.PlayerResults[1])
	}
}

// TestRecordFault 测试超时失误记录
func TestRecordFault(t *testing.T) {
	e := newTestEngine(t, 10, 20)

	events := e.RecordFault(10)
	if len(events) != 1 || events[0].Type != EventTurnTimedOut {
		t.Fatalf("期望 1 条超时事件, 实际 = %+v", events)
	}

	payload := events[0].Payload.(*TurnTimedOutPayload)
	if payload.FaultCount != 1 {
		t.Errorf("期望失误计数 1, 实际 = %d", payload.FaultCount)
	}
	if e.state.Players[0].FaultCount != 1 {
		t.Errorf("期望玩家失误计数 1, 实际 = %d", e.state.Players[0].FaultCount)
	}
}

// TestAutoPlay 测试超时代打
func TestAutoPlay(t *testing.T) {
	e := newTestEngine(t, 10, 20)
	s := e.state

	// 场上有棋子，任何点数都有走法
	s.Players[0].Pieces[0].Status = PiecePlaying
	s.Players[0].Pieces[0].Position = &Position{Type: MainRoad, Index: 20}

	events := e.AutoPlay(10)
	if len(events) == 0 {
		t.Fatal("期望代打产生事件")
	}
	if events[0].Type != EventRolledDice {
		t.Errorf("期望先掷骰, 实际 = %s", events[0].Type)
	}
	if s.LastTurn.Step != StepAwaitingRoll {
		t.Errorf("期望代打后回到掷骰阶段, 实际 = %v", s.LastTurn.Step)
	}

	// 非当前行动者代打无效果
	if events := e.AutoPlay(20); events != nil {
		t.Errorf("期望非行动者代打无事件, 实际 = %+v", events)
	}
}

// TestStateVersionMonotonic 测试版本号单调递增
func TestStateVersionMonotonic(t *testing.T) {
	e := newTestEngine(t, 10, 20)

	before := e.Base().Version()
	events, err := e.HandleAction(10, ActionCheat, cheatData(t, "roll_dice_3"))
	if err != nil {
		t.Fatalf("掷骰失败: %v", err)
	}

	last := before
	for _, ev := range events {
		if ev.Version != last+1 {
			t.Errorf("期望版本 %d, 实际 = %d", last+1, ev.Version)
		}
		last = ev.Version
	}
	if e.Base().Version() != last {
		t.Errorf("期望状态版本 %d, 实际 = %d", last, e.Base().Version())
	}
}

// TestPityDiceCap 测试保底概率上限
func TestPityDiceCap(t *testing.T) {
	e := newTestEngine(t, 10, 20)
	p := e.state.Players[0]

	p.pityStreak = 100
	chance := pityBaseChance + pityBoostStep*float64(p.pityStreak)
	if chance <= pityMaxChance {
		t.Fatal("测试前提错误: 应超过上限")
	}

	// 连续大量掷骰，保底通道也必须产出合法点数
	for i := 0; i < 200; i++ {
		v := e.state.rollValue(p)
		if v < 1 || v > 6 {
			t.Fatalf("期望点数 1-6, 实际 = %d", v)
		}
	}
}
