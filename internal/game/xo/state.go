package xo

import (
	apperrors "github.com/Mahdioshani/backend/internal/errors"
	"github.com/Mahdioshani/backend/internal/game"
)

// State 嵌套井字棋对局状态
// CurrentTurn 显式记录当前行动者，而不是从落子记录反推
type State struct {
	*game.BaseState

	Players     []*Player                `json:"players"`
	SubBoards   [SubBoardCount]*SubBoard `json:"sub_boards"`
	Conclusion  BoardStatus              `json:"conclusion"`
	LastTurn    *TurnRecord              `json:"last_turn"`
	CurrentTurn int64                    `json:"current_turn_player_id"`
}

// NewState 创建井字棋对局状态，恰好 2 名玩家，先手执 X
func NewState(matchId string, playerIds []int64) (*State, error) {
	if len(playerIds) != 2 {
		return nil, apperrors.ErrInvalidPlayerCount
	}

	symbols := [2]Symbol{SymbolX, SymbolO}
	players := make([]*Player, len(playerIds))
	basePlayers := make([]*game.PlayerState, len(playerIds))
	for i, id := range playerIds {
		p := &Player{
			PlayerState: game.PlayerState{PlayerId: id, IsConnected: true},
			Symbol:      symbols[i],
		}
		players[i] = p
		basePlayers[i] = &p.PlayerState
	}

	s := &State{
		BaseState:  game.NewBaseStateFrom(matchId, basePlayers),
		Players:    players,
		Conclusion: StatusRunning,
	}
	for i := range s.SubBoards {
		s.SubBoards[i] = newSubBoard(i)
	}
	return s, nil
}

// player 按 ID 查找变体玩家
func (s *State) player(playerId int64) *Player {
	for _, p := range s.Players {
		if p.PlayerId == playerId {
			return p
		}
	}
	return nil
}

// opponent 对手玩家
func (s *State) opponent(playerId int64) *Player {
	for _, p := range s.Players {
		if p.PlayerId != playerId {
			return p
		}
	}
	return nil
}

// legalSubBoard 判断落子进入该子棋盘是否合法
// 首手任意；上一手指向的子棋盘仍在进行则必须进入它，否则任意进行中的子棋盘
func (s *State) legalSubBoard(subBoardId int) bool {
	if subBoardId < 0 || subBoardId >= SubBoardCount {
		return false
	}
	if s.SubBoards[subBoardId].Status != StatusRunning {
		return false
	}

	if s.LastTurn == nil || s.LastTurn.Move == nil {
		return true
	}

	dictated := dictatedSubBoard(s.LastTurn.Move)
	if s.SubBoards[dictated].Status != StatusRunning {
		return true
	}
	return subBoardId == dictated
}

// place 落子并重算子棋盘与整局状态
func (s *State) place(p *Player, subBoardId, row, col int) *Move {
	board := s.SubBoards[subBoardId]
	board.Cells[row][col] = string(p.Symbol)
	board.recompute()
	s.Conclusion = outerStatus(s.SubBoards)

	move := &Move{
		SubBoardId: subBoardId,
		Row:        row,
		Col:        col,
		Symbol:     p.Symbol,
	}
	s.LastTurn = &TurnRecord{PlayerId: p.PlayerId, Move: move}
	return move
}

// firstLegalMove 超时代打用: 找到第一个合法落点
func (s *State) firstLegalMove() (int, int, int, bool) {
	for id := 0; id < SubBoardCount; id++ {
		if !s.legalSubBoard(id) {
			continue
		}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				if s.SubBoards[id].Cells[r][c] == emptyCell {
					return id, r, c, true
				}
			}
		}
	}
	return 0, 0, 0, false
}
