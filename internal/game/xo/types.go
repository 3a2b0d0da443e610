package xo

import (
	"github.com/Mahdioshani/backend/internal/game"
)

// Symbol 玩家落子符号
type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"

	// emptyCell 空格占位符
	emptyCell = "Z"
)

// BoardStatus 棋盘状态 (子棋盘与整局通用)
type BoardStatus string

const (
	StatusRunning BoardStatus = "RUNNING"
	StatusWinX    BoardStatus = "X"
	StatusWinO    BoardStatus = "O"
	StatusDraw    BoardStatus = "DRAW"
)

// SubBoard 3x3 子棋盘
// Status 一旦判定就不再改变，后续落子不会推翻结果
type SubBoard struct {
	Id     int          `json:"id"`
	Status BoardStatus  `json:"status"`
	Cells  [3][3]string `json:"table"`
}

// Player 井字棋玩家状态
type Player struct {
	game.PlayerState

	Symbol Symbol `json:"turn_symbol"`
}

// Move 一次落子
type Move struct {
	SubBoardId int    `json:"sub_board_id"`
	Row        int    `json:"x_pos"`
	Col        int    `json:"y_pos"`
	Symbol     Symbol `json:"turn"`
}

// TurnRecord 最近一次落子记录
// 下一手被指向的子棋盘由 Move 的行列推导
type TurnRecord struct {
	PlayerId int64 `json:"player_id"`
	Move     *Move `json:"move"`
}
