package xo

import (
	"github.com/Mahdioshani/backend/internal/game"
)

// computeResult 终局结算
// 整局有胜方符号时按符号定胜负；平局双方同分同名次；
// 无结论的强制终局里，弃赛方垫底，唯一在局玩家判胜
func computeResult(s *State) *game.Result {
	if s == nil {
		return &game.Result{}
	}

	n := len(s.Players)
	results := make([]game.PlayerResult, 0, n)

	var winner *Player
	switch s.Conclusion {
	case StatusWinX, StatusWinO:
		for _, p := range s.Players {
			if p.Symbol == Symbol(s.Conclusion) {
				winner = p
			}
		}
	case StatusRunning:
		if actives := s.ActivePlayers(); len(actives) == 1 {
			winner = s.player(actives[0].PlayerId)
		}
	}

	for _, p := range s.Players {
		r := game.PlayerResult{PlayerId: p.PlayerId}

		switch {
		case winner != nil && p.PlayerId == winner.PlayerId:
			r.Outcome = game.OutcomeWon
			r.Points = game.WinPoints(n)
			r.Rank = 1
		case p.HasLeft:
			r.Outcome = game.OutcomeAbandoned
			r.Points = 0
			r.Rank = 2
		case winner != nil:
			r.Outcome = game.OutcomeLost
			r.Points = game.LossPoints
			r.Rank = 2
		case s.Conclusion == StatusDraw:
			r.Outcome = game.OutcomeNotScored
			r.Points = game.LossPoints
			r.Rank = 1
		default:
			r.Outcome = game.OutcomeNotScored
			r.Points = game.LossPoints
			r.Rank = 1
		}

		results = append(results, r)
	}

	return &game.Result{PlayerResults: results}
}
