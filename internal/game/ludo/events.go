package ludo

// 飞行棋领域事件类型
const (
	EventRolledDice    = "ludo.rolled_dice"
	EventPieceMoved    = "ludo.piece_moved"
	EventPieceCaptured = "ludo.piece_captured"
	EventTurnUpdated   = "ludo.turn_updated"
	EventTurnTimedOut  = "ludo.turn_timed_out"
)

// PieceMovedPayload ludo.piece_moved 事件载荷
type PieceMovedPayload struct {
	PlayerId int64       `json:"player_id"`
	PieceId  int         `json:"piece_id"`
	Move     *MoveRecord `json:"move"`
}

// PieceCapturedPayload ludo.piece_captured 事件载荷
type PieceCapturedPayload struct {
	PlayerId   int64 `json:"player_id"`
	PieceId    int   `json:"piece_id"`
	CapturedBy int64 `json:"captured_by"`
}

// TurnUpdatedPayload ludo.turn_updated 事件载荷
type TurnUpdatedPayload struct {
	CurrentTurnPlayer *Player `json:"current_turn_player"`
}

// TurnTimedOutPayload ludo.turn_timed_out 事件载荷
type TurnTimedOutPayload struct {
	PlayerId   int64 `json:"player_id"`
	FaultCount int   `json:"fault_count"`
}

// SnapshotPayload 重连快照
type SnapshotPayload struct {
	MatchId       string      `json:"match_id"`
	Players       []*Player   `json:"players"`
	LastTurn      *TurnRecord `json:"last_turn"`
	RemainingTime int64       `json:"remaining_time"`
	StateVersion  int64       `json:"state_version"`
}
