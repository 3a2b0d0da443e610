package ludo

import (
	"encoding/json"
	"math/rand"
	"time"

	apperrors "github.com/Mahdioshani/backend/internal/errors"
	"github.com/Mahdioshani/backend/internal/game"
)

// 飞行棋动作表
const (
	ActionRollDice    = "ludo.roll_dice"
	ActionSelectPiece = "ludo.select_piece"
	ActionCheat       = "ludo.cheat"
)

// SelectPieceData ludo.select_piece 动作参数
type SelectPieceData struct {
	PieceId int `json:"piece_id"`
}

// CheatData ludo.cheat 动作参数
type CheatData struct {
	Code string `json:"code"`
}

// Engine 飞行棋引擎
// 不做并发保护，由生命周期控制器持锁调用
type Engine struct {
	state *State
}

// NewEngine 创建飞行棋引擎
func NewEngine() game.Engine {
	return &Engine{}
}

// Setup 初始化对局状态
func (e *Engine) Setup(matchId string, playerIds []int64) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state, err := NewState(matchId, playerIds, rng)
	if err != nil {
		return err
	}

	e.state = state
	return nil
}

// OnStart 开局: 首位玩家进入掷骰阶段
func (e *Engine) OnStart() []game.Event {
	return e.turnEvents(false)
}

// HandleAction 按动作表分发
func (e *Engine) HandleAction(playerId int64, actionName string, data json.RawMessage) ([]game.Event, error) {
	switch actionName {
	case ActionRollDice:
		return e.handleRoll(playerId, 0)
	case ActionSelectPiece:
		var d SelectPieceData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, apperrors.ErrInvalidParams.Wrap(err)
		}
		return e.handleSelectPiece(playerId, d.PieceId)
	case ActionCheat:
		var d CheatData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, apperrors.ErrInvalidParams.Wrap(err)
		}
		return e.handleCheat(playerId, d.Code)
	default:
		return nil, apperrors.ErrInvalidAction
	}
}

// handleRoll 处理掷骰，forced 非 0 时为作弊指定点数
func (e *Engine) handleRoll(playerId int64, forced int) ([]game.Event, error) {
	s := e.state
	if s.LastTurn == nil || s.LastTurn.Step != StepAwaitingRoll {
		return nil, apperrors.ErrInvalidAction
	}

	p := s.player(playerId)
	if p == nil {
		return nil, apperrors.ErrPlayerNotFound
	}

	result := s.applyRoll(p, forced)
	events := []game.Event{game.NewEvent(EventRolledDice, result, s.Bump())}

	// 没有合法走法时直接推进回合 (含三连6没收)
	if len(result.Options) == 0 {
		events = append(events, e.turnEvents(false)...)
	}

	return events, nil
}

// handleSelectPiece 处理玩家从合法选项中选择棋子
func (e *Engine) handleSelectPiece(playerId int64, pieceId int) ([]game.Event, error) {
	s := e.state
	if s.LastTurn == nil || s.LastTurn.Step != StepAwaitingMove {
		return nil, apperrors.ErrInvalidAction
	}

	var chosen *MoveOption
	for i := range s.LastTurn.Options {
		if s.LastTurn.Options[i].PieceId == pieceId {
			chosen = &s.LastTurn.Options[i]
			break
		}
	}
	if chosen == nil {
		return nil, apperrors.ErrIllegalOption
	}

	keepDice := s.LastTurn.DiceValue == 6
	events := e.applyMove(playerId, chosen.PieceId, chosen.After, keepDice)
	return events, nil
}

// handleCheat 处理作弊码
func (e *Engine) handleCheat(playerId int64, code string) ([]game.Event, error) {
	cheat := parseCheat(code)
	if cheat == nil {
		return nil, apperrors.ErrInvalidCheat
	}

	s := e.state
	p := s.player(playerId)
	if p == nil {
		return nil, apperrors.ErrPlayerNotFound
	}

	switch cheat.kind {
	case cheatRollDice:
		return e.handleRoll(playerId, cheat.values[0])
	case cheatMoveMain:
		after := PieceMove{
			Status:   PiecePlaying,
			Position: &Position{Type: MainRoad, Index: cheat.values[1]},
		}
		return e.applyMove(playerId, cheat.values[0], after, false), nil
	case cheatMoveSide:
		after := PieceMove{
			Status:   PiecePlaying,
			Position: &Position{Type: SideRoad, Index: cheat.values[1]},
		}
		return e.applyMove(playerId, cheat.values[0], after, false), nil
	}

	return nil, apperrors.ErrInvalidCheat
}

// applyMove 执行移动并处理吃子、胜利判定与回合推进
func (e *Engine) applyMove(playerId int64, pieceId int, after PieceMove, keepDice bool) []game.Event {
	s := e.state
	p := s.player(playerId)
	if p == nil {
		return nil
	}

	var events []game.Event

	captured := s.capturablePieces(p, after)
	record := s.movePieceTo(p, pieceId, after)
	if record == nil {
		return nil
	}

	events = append(events, game.NewEvent(EventPieceMoved, &PieceMovedPayload{
		PlayerId: playerId,
		PieceId:  pieceId,
		Move:     record,
	}, s.Bump()))

	for _, c := range captured {
		s.movePieceTo(c.Player, c.Piece.Id, PieceMove{Status: PieceOut})
		events = append(events, game.NewEvent(EventPieceCaptured, &PieceCapturedPayload{
			PlayerId:   c.Player.PlayerId,
			PieceId:    c.Piece.Id,
			CapturedBy: playerId,
		}, s.Bump()))
	}

	if s.hasWon(p) {
		s.Winner = playerId
		return events
	}

	// 掷出6、吃子或有棋子到达终点都会保留回合
	keepTurn := keepDice || len(captured) > 0 || after.Status == PieceFinished
	events = append(events, e.turnEvents(keepTurn)...)
	return events
}

// turnEvents 推进回合并产出回合更新事件
func (e *Engine) turnEvents(keepTurn bool) []game.Event {
	s := e.state
	next := s.advanceTurn(keepTurn)
	if next == nil {
		return nil
	}

	return []game.Event{game.NewEvent(EventTurnUpdated, &TurnUpdatedPayload{
		CurrentTurnPlayer: next,
	}, s.Bump())}
}

// AutoPlay 超时代打: 掷骰后自动走第一个合法选项
func (e *Engine) AutoPlay(playerId int64) []game.Event {
	s := e.state
	if s.LastTurn == nil || s.LastTurn.PlayerId != playerId {
		return nil
	}

	var events []game.Event

	if s.LastTurn.Step == StepAwaitingRoll {
		rolled, err := e.handleRoll(playerId, 0)
		if err != nil {
			return nil
		}
		events = append(events, rolled...)
	}

	if s.LastTurn != nil && s.LastTurn.PlayerId == playerId &&
		s.LastTurn.Step == StepAwaitingMove && len(s.LastTurn.Options) > 0 {
		moved, err := e.handleSelectPiece(playerId, s.LastTurn.Options[0].PieceId)
		if err == nil {
			events = append(events, moved...)
		}
	}

	return events
}

// RecordFault 记录一次超时失误
func (e *Engine) RecordFault(playerId int64) []game.Event {
	s := e.state
	p := s.player(playerId)
	if p == nil {
		return nil
	}

	p.FaultCount++
	return []game.Event{game.NewEvent(EventTurnTimedOut, &TurnTimedOutPayload{
		PlayerId:   playerId,
		FaultCount: p.FaultCount,
	}, s.Bump())}
}

// OnPlayerLeft 玩家离开: 棋子清回场外，轮到他时推进回合
func (e *Engine) OnPlayerLeft(playerId int64) []game.Event {
	s := e.state
	p := s.player(playerId)
	if p == nil {
		return nil
	}

	s.resetPieces(p)

	if s.LastTurn != nil && s.LastTurn.PlayerId == playerId && !e.IsTerminal() {
		return e.turnEvents(false)
	}
	return nil
}

// CurrentActor 当前行动者
func (e *Engine) CurrentActor() int64 {
	if e.state == nil || e.state.LastTurn == nil {
		return 0
	}
	return e.state.LastTurn.PlayerId
}

// IsTerminal 是否终局
func (e *Engine) IsTerminal() bool {
	return e.state != nil && e.state.Winner != 0
}

// Result 终局结算
func (e *Engine) Result() *game.Result {
	return computeResult(e.state)
}

// Snapshot 重连快照
func (e *Engine) Snapshot(remaining time.Duration) any {
	s := e.state
	return &SnapshotPayload{
		MatchId:       s.Id,
		Players:       s.Players,
		LastTurn:      s.LastTurn,
		RemainingTime: remaining.Milliseconds(),
		StateVersion:  s.Version(),
	}
}

// Base 基础状态
func (e *Engine) Base() *game.BaseState {
	return e.state.BaseState
}

// MinimumPlayers 最低人数
func (e *Engine) MinimumPlayers() int {
	return 2
}
