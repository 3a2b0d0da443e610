package ludo

import (
	"sort"

	"github.com/Mahdioshani/backend/internal/game"
)

// computeResult 终局结算
// 胜者得胜分，仍在局中的玩家得保底分，弃赛玩家排在最后且不得分。
// 名次先按是否弃赛，再按到达终点的棋子数，最后按座位顺序
func computeResult(s *State) *game.Result {
	if s == nil {
		return &game.Result{}
	}

	n := len(s.Players)
	ranked := make([]*Player, 0, n)
	for _, p := range s.Players {
		ranked = append(ranked, p)
	}

	seat := make(map[int64]int, n)
	for i, p := range s.Players {
		seat[p.PlayerId] = i
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.PlayerId == s.Winner {
			return true
		}
		if b.PlayerId == s.Winner {
			return false
		}
		if a.HasLeft != b.HasLeft {
			return !a.HasLeft
		}
		if a.finishedCount() != b.finishedCount() {
			return a.finishedCount() > b.finishedCount()
		}
		return seat[a.PlayerId] < seat[b.PlayerId]
	})

	activeCount := s.ActiveCount()
	results := make([]game.PlayerResult, 0, n)
	for rank, p := range ranked {
		r := game.PlayerResult{
			PlayerId: p.PlayerId,
			Rank:     rank + 1,
		}

		switch {
		case p.PlayerId == s.Winner && s.Winner != 0:
			r.Outcome = game.OutcomeWon
			r.Points = game.WinPoints(n)
		case p.HasLeft:
			r.Outcome = game.OutcomeAbandoned
			r.Points = 0
		case s.Winner != 0:
			r.Outcome = game.OutcomeLost
			r.Points = game.LossPoints
		case activeCount == 1:
			// 其他人全部弃赛，唯一在局玩家判胜
			r.Outcome = game.OutcomeWon
			r.Points = game.WinPoints(n)
		default:
			// 无胜者的强制终局
			r.Outcome = game.OutcomeNotScored
			r.Points = game.LossPoints
		}

		results = append(results, r)
	}

	return &game.Result{PlayerResults: results}
}
