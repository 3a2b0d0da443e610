package ludo

import (
	"math/rand"

	apperrors "github.com/Mahdioshani/backend/internal/errors"
	"github.com/Mahdioshani/backend/internal/game"
)

// 保底骰子参数: 全部棋子在场外时，掷出6的概率随连续失败次数线性提升
const (
	pityBaseChance = 1.0 / 6
	pityBoostStep  = 0.05
	pityMaxChance  = 0.5
)

// State 飞行棋对局状态
type State struct {
	*game.BaseState

	Players  []*Player   `json:"players"`
	LastTurn *TurnRecord `json:"last_turn"`
	Winner   int64       `json:"winner_id,omitempty"`

	rng *rand.Rand
}

// NewState 创建飞行棋对局状态，支持 2-4 名玩家
func NewState(matchId string, playerIds []int64, rng *rand.Rand) (*State, error) {
	if len(playerIds) < 2 || len(playerIds) > 4 {
		return nil, apperrors.ErrInvalidPlayerCount
	}

	players := make([]*Player, len(playerIds))
	basePlayers := make([]*game.PlayerState, len(playerIds))
	for seat, id := range playerIds {
		pieces := make([]*Piece, PiecesPerPlayer)
		for i := range pieces {
			pieces[i] = &Piece{Id: i + 1, Status: PieceOut}
		}

		p := &Player{
			PlayerState: game.PlayerState{PlayerId: id, IsConnected: true},
			StartPoint:  StartPoint(seat),
			Pieces:      pieces,
		}
		players[seat] = p
		basePlayers[seat] = &p.PlayerState
	}

	return &State{
		BaseState: game.NewBaseStateFrom(matchId, basePlayers),
		Players:   players,
		rng:       rng,
	}, nil
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

// rollValue 掷骰
// 所有棋子都在场外时走保底通道，否则均匀分布
func (s *State) rollValue(p *Player) int {
	if p.allOut() {
		chance := pityBaseChance + pityBoostStep*float64(p.pityStreak)
		if chance > pityMaxChance {
			chance = pityMaxChance
		}
		if s.rng.Float64() < chance {
			return 6
		}
		return 1 + s.rng.Intn(5)
	}
	return 1 + s.rng.Intn(6)
}

// applyRoll 执行一次掷骰并更新回合记录
// forced 非 0 时使用指定点数 (作弊码通道)
func (s *State) applyRoll(p *Player, forced int) *RollResult {
	value := forced
	if value == 0 {
		value = s.rollValue(p)
	}

	if value == 6 {
		p.ConsecutiveSixes++
		p.pityStreak = 0
	} else {
		p.ConsecutiveSixes = 0
		if p.allOut() {
			p.pityStreak++
		}
	}

	reported := p.ConsecutiveSixes

	var options []MoveOption
	if p.ConsecutiveSixes >= maxConsecutiveSixes {
		// 连续三个6没收本回合
		p.ConsecutiveSixes = 0
	} else {
		options = s.legalOptions(p, value)
	}

	s.LastTurn.DiceValue = value
	s.LastTurn.Options = options
	if len(options) > 0 {
		s.LastTurn.Step = StepAwaitingMove
	}

	return &RollResult{
		PlayerId:         p.PlayerId,
		DiceValue:        value,
		Options:          options,
		ConsecutiveSixes: reported,
	}
}

// legalOptions 枚举玩家在给定点数下的所有合法走法
func (s *State) legalOptions(p *Player, dice int) []MoveOption {
	var options []MoveOption

	for _, piece := range p.Pieces {
		var after PieceMove
		var ok bool

		switch piece.Status {
		case PieceOut:
			if dice != 6 {
				continue
			}
			after = PieceMove{
				Status:   PiecePlaying,
				Position: &Position{Type: MainRoad, Index: p.StartPoint},
			}
			ok = true
		case PiecePlaying:
			if piece.Position.Type == MainRoad {
				after, ok = mainRoadDestination(p.StartPoint, piece.Position.Index, dice)
			} else {
				after, ok = sideRoadDestination(piece.Position.Index, dice)
			}
		case PieceFinished:
			continue
		}

		if !ok || s.blockedByOwn(p, piece.Id, after) {
			continue
		}

		options = append(options, MoveOption{
			PieceId: piece.Id,
			Before:  PieceMove{Status: piece.Status, Position: piece.Position},
			After:   after,
		})
	}

	return options
}

// blockedByOwn 落点被己方其他棋子占据则非法，安全格除外
func (s *State) blockedByOwn(p *Player, pieceId int, after PieceMove) bool {
	if after.Status != PiecePlaying {
		return false
	}
	if after.Position.Type == MainRoad && IsSafeCell(after.Position.Index) {
		return false
	}

	for _, piece := range p.Pieces {
		if piece.Id == pieceId || piece.Status != PiecePlaying {
			continue
		}
		if piece.Position.Type == after.Position.Type && piece.Position.Index == after.Position.Index {
			return true
		}
	}
	return false
}

// movePieceTo 移动棋子到指定落点，返回移动记录
func (s *State) movePieceTo(p *Player, pieceId int, after PieceMove) *MoveRecord {
	piece := p.piece(pieceId)
	if piece == nil {
		return nil
	}

	record := &MoveRecord{
		Before: PieceMove{Status: piece.Status, Position: piece.Position},
		After:  after,
	}
	piece.Status = after.Status
	piece.Position = after.Position
	return record
}

// capturedPiece 被吃的棋子及其归属
type capturedPiece struct {
	Player *Player
	Piece  *Piece
}

// capturablePieces 落点上可被吃的对方棋子
// 只有赛道非安全格会发生吃子，终点道是私有的
func (s *State) capturablePieces(mover *Player, after PieceMove) []capturedPiece {
	if after.Status != PiecePlaying || after.Position.Type != MainRoad {
		return nil
	}
	if IsSafeCell(after.Position.Index) {
		return nil
	}

	var captured []capturedPiece
	for _, p := range s.Players {
		if p.PlayerId == mover.PlayerId {
			continue
		}
		for _, piece := range p.Pieces {
			if piece.Status != PiecePlaying || piece.Position.Type != MainRoad {
				continue
			}
			if piece.Position.Index == after.Position.Index {
				captured = append(captured, capturedPiece{Player: p, Piece: piece})
			}
		}
	}
	return captured
}

// hasWon 玩家是否所有棋子都已到达终点
func (s *State) hasWon(p *Player) bool {
	return p.finishedCount() == PiecesPerPlayer
}

// advanceTurn 推进回合
// keepTurn 为真且当前玩家仍在局中时保留回合，否则顺时针找下一个未离开的玩家。
// 没有可行动玩家时返回 nil
func (s *State) advanceTurn(keepTurn bool) *Player {
	var next *Player

	if s.LastTurn == nil {
		for _, p := range s.Players {
			if !p.HasLeft {
				next = p
				break
			}
		}
	} else {
		cur := s.player(s.LastTurn.PlayerId)
		if keepTurn && cur != nil && !cur.HasLeft {
			next = cur
		} else {
			seat := s.Seat(s.LastTurn.PlayerId)
			for i := 1; i <= len(s.Players); i++ {
				candidate := s.Players[(seat+i)%len(s.Players)]
				if !candidate.HasLeft {
					next = candidate
					break
				}
			}
		}
	}

	if next == nil {
		s.LastTurn = nil
		return nil
	}

	s.LastTurn = &TurnRecord{PlayerId: next.PlayerId, Step: StepAwaitingRoll}
	return next
}

// resetPieces 将玩家所有棋子清回场外
func (s *State) resetPieces(p *Player) {
	for _, piece := range p.Pieces {
		piece.Status = PieceOut
		piece.Position = nil
	}
	p.ConsecutiveSixes = 0
	p.pityStreak = 0
}
