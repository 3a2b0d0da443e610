package ludo

import (
	"github.com/Mahdioshani/backend/internal/game"
)

// PieceStatus 棋子状态
type PieceStatus string

const (
	PieceOut      PieceStatus = "OUT"      // 未进入赛道
	PiecePlaying  PieceStatus = "PLAYING"  // 在赛道或终点道上
	PieceFinished PieceStatus = "FINISHED" // 已到达终点
)

// PositionType 位置类型
type PositionType string

const (
	MainRoad PositionType = "MAIN_ROAD" // 共享环形赛道
	SideRoad PositionType = "SIDE_ROAD" // 玩家私有终点道
)

// Position 棋子位置
type Position struct {
	Type  PositionType `json:"type"`
	Index int          `json:"index"`
}

// Piece 棋子
// OUT / FINISHED 状态下 Position 为 nil
type Piece struct {
	Id       int         `json:"id"`
	Status   PieceStatus `json:"piece_status"`
	Position *Position   `json:"position"`
}

// Player 飞行棋玩家状态
type Player struct {
	game.PlayerState

	StartPoint       int      `json:"start_point"`
	Pieces           []*Piece `json:"pieces"`
	ConsecutiveSixes int      `json:"continuous_six_dice_count"`

	// pityStreak 全部棋子都在场外时，连续未掷出6的次数 (保底机制计数)
	pityStreak int
}

// allOut 是否所有棋子都在场外
func (p *Player) allOut() bool {
	for _, piece := range p.Pieces {
		if piece.Status != PieceOut {
			return false
		}
	}
	return true
}

// finishedCount 已到达终点的棋子数
func (p *Player) finishedCount() int {
	count := 0
	for _, piece := range p.Pieces {
		if piece.Status == PieceFinished {
			count++
		}
	}
	return count
}

// piece 按 ID 查找棋子，不存在返回 nil
func (p *Player) piece(pieceId int) *Piece {
	for _, piece := range p.Pieces {
		if piece.Id == pieceId {
			return piece
		}
	}
	return nil
}

// TurnStep 回合子步骤
type TurnStep string

const (
	StepAwaitingRoll TurnStep = "AWAITING_ROLL" // 等待掷骰
	StepAwaitingMove TurnStep = "AWAITING_MOVE" // 等待选择棋子
)

// PieceMove 棋子的一个落点 (状态 + 位置)
type PieceMove struct {
	Status   PieceStatus `json:"piece_status"`
	Position *Position   `json:"position"`
}

// MoveOption 预计算的合法走法
// 玩家只能从预计算选项中选择，引擎不接受任意目的地
type MoveOption struct {
	PieceId int       `json:"piece_id"`
	Before  PieceMove `json:"before_move"`
	After   PieceMove `json:"after_move"`
}

// MoveRecord 一次已执行的移动
type MoveRecord struct {
	Before PieceMove `json:"before_move"`
	After  PieceMove `json:"after_move"`
}

// TurnRecord 当前回合记录
// 只在对局运行期间存在，每次回合推进时整体替换
type TurnRecord struct {
	PlayerId  int64        `json:"player_id"`
	Step      TurnStep     `json:"step"`
	DiceValue int          `json:"dice_value,omitempty"`
	Options   []MoveOption `json:"options,omitempty"`
}

// RollResult 掷骰结果
type RollResult struct {
	PlayerId         int64        `json:"player_id"`
	DiceValue        int          `json:"dice"`
	Options          []MoveOption `json:"options"`
	ConsecutiveSixes int          `json:"continuous_six_dice_count"`
}
