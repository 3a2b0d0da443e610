package xo

import (
	"encoding/json"
	"time"

	apperrors "github.com/Mahdioshani/backend/internal/errors"
	"github.com/Mahdioshani/backend/internal/game"
)

// 井字棋动作表
const (
	ActionPlaceMark = "xo.place_mark"
)

// 井字棋领域事件类型
const (
	EventCellPlaced   = "xo.cell_placed"
	EventTurnUpdated  = "xo.turn_updated"
	EventTurnTimedOut = "xo.turn_timed_out"
)

// PlaceData xo.place_mark 动作参数
type PlaceData struct {
	SubBoardId int `json:"sub_board_id"`
	Row        int `json:"x_pos"`
	Col        int `json:"y_pos"`
}

// CellPlacedPayload xo.cell_placed 事件载荷
type CellPlacedPayload struct {
	PlayerId   int64       `json:"player_id"`
	Move       *Move       `json:"move"`
	SubBoard   *SubBoard   `json:"sub_board"`
	Conclusion BoardStatus `json:"conclusion"`
}

// TurnUpdatedPayload xo.turn_updated 事件载荷
type TurnUpdatedPayload struct {
	CurrentTurnPlayer *Player `json:"current_turn_player"`
}

// TurnTimedOutPayload xo.turn_timed_out 事件载荷
type TurnTimedOutPayload struct {
	PlayerId   int64 `json:"player_id"`
	FaultCount int   `json:"fault_count"`
}

// SnapshotPayload 重连快照
type SnapshotPayload struct {
	MatchId       string                   `json:"match_id"`
	Players       []*Player                `json:"players"`
	SubBoards     [SubBoardCount]*SubBoard `json:"sub_boards"`
	Conclusion    BoardStatus              `json:"conclusion"`
	LastTurn      *TurnRecord              `json:"last_turn"`
	CurrentTurn   int64                    `json:"current_turn_player_id"`
	RemainingTime int64                    `json:"remaining_time"`
	StateVersion  int64                    `json:"state_version"`
}

// Engine 嵌套井字棋引擎
// 不做并发保护，由生命周期控制器持锁调用
type Engine struct {
	state *State
}

// NewEngine 创建井字棋引擎
func NewEngine() game.Engine {
	return &Engine{}
}

// Setup 初始化对局状态
func (e *Engine) Setup(matchId string, playerIds []int64) error {
	state, err := NewState(matchId, playerIds)
	if err != nil {
		return err
	}

	e.state = state
	return nil
}

// OnStart 开局: 执 X 的先手玩家进入行动
func (e *Engine) OnStart() []game.Event {
	s := e.state
	s.CurrentTurn = s.Players[0].PlayerId

	return []game.Event{game.NewEvent(EventTurnUpdated, &TurnUpdatedPayload{
		CurrentTurnPlayer: s.Players[0],
	}, s.Bump())}
}

// HandleAction 按动作表分发
func (e *Engine) HandleAction(playerId int64, actionName string, data json.RawMessage) ([]game.Event, error) {
	switch actionName {
	case ActionPlaceMark:
		var d PlaceData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, apperrors.ErrInvalidParams.Wrap(err)
		}
		return e.handlePlace(playerId, d)
	default:
		return nil, apperrors.ErrInvalidAction
	}
}

// handlePlace 处理落子
func (e *Engine) handlePlace(playerId int64, d PlaceData) ([]game.Event, error) {
	s := e.state
	p := s.player(playerId)
	if p == nil {
		return nil, apperrors.ErrPlayerNotFound
	}

	if d.Row < 0 || d.Row > 2 || d.Col < 0 || d.Col > 2 {
		return nil, apperrors.ErrInvalidParams
	}
	if !s.legalSubBoard(d.SubBoardId) {
		return nil, apperrors.ErrInvalidMove
	}
	if s.SubBoards[d.SubBoardId].Cells[d.Row][d.Col] != emptyCell {
		return nil, apperrors.ErrInvalidMove
	}

	move := s.place(p, d.SubBoardId, d.Row, d.Col)
	events := []game.Event{game.NewEvent(EventCellPlaced, &CellPlacedPayload{
		PlayerId:   playerId,
		Move:       move,
		SubBoard:   s.SubBoards[d.SubBoardId],
		Conclusion: s.Conclusion,
	}, s.Bump())}

	if s.Conclusion != StatusRunning {
		return events, nil
	}

	next := s.opponent(playerId)
	s.CurrentTurn = next.PlayerId
	events = append(events, game.NewEvent(EventTurnUpdated, &TurnUpdatedPayload{
		CurrentTurnPlayer: next,
	}, s.Bump()))

	return events, nil
}

// AutoPlay 超时代打: 落在第一个合法空格
func (e *Engine) AutoPlay(playerId int64) []game.Event {
	s := e.state
	if s.CurrentTurn != playerId || s.Conclusion != StatusRunning {
		return nil
	}

	id, row, col, ok := s.firstLegalMove()
	if !ok {
		return nil
	}

	events, err := e.handlePlace(playerId, PlaceData{SubBoardId: id, Row: row, Col: col})
	if err != nil {
		return nil
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

// OnPlayerLeft 玩家离开: 行动权移交对手
// 两人局少一人必然低于最低人数，控制器随后会强制终局
func (e *Engine) OnPlayerLeft(playerId int64) []game.Event {
	s := e.state
	if s.CurrentTurn != playerId || s.Conclusion != StatusRunning {
		return nil
	}

	next := s.opponent(playerId)
	if next == nil || next.HasLeft {
		return nil
	}

	s.CurrentTurn = next.PlayerId
	return []game.Event{game.NewEvent(EventTurnUpdated, &TurnUpdatedPayload{
		CurrentTurnPlayer: next,
	}, s.Bump())}
}

// CurrentActor 当前行动者
func (e *Engine) CurrentActor() int64 {
	if e.state == nil {
		return 0
	}
	return e.state.CurrentTurn
}

// IsTerminal 是否终局
func (e *Engine) IsTerminal() bool {
	return e.state != nil && e.state.Conclusion != StatusRunning
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
		SubBoards:     s.SubBoards,
		Conclusion:    s.Conclusion,
		LastTurn:      s.LastTurn,
		CurrentTurn:   s.CurrentTurn,
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
