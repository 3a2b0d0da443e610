package game

// Outcome 结算结果状态
type Outcome string

const (
	OutcomeWon       Outcome = "WON"
	OutcomeLost      Outcome = "LOST"
	OutcomeNotScored Outcome = "NOT_SCORED"
	OutcomeAbandoned Outcome = "ABANDONED"
)

// PlayerResult 单个玩家的最终结算
type PlayerResult struct {
	PlayerId int64   `json:"player_id"`
	Points   float64 `json:"points"`
	Rank     int     `json:"rank"`
	Outcome  Outcome `json:"result_status"`
}

// Result 对局结算结果
type Result struct {
	PlayerResults []PlayerResult `json:"player_results"`
}

// LossPoints 未获胜且未弃赛的固定得分
const LossPoints = 0.25

// WinPoints 获胜得分，按开局人数给分 (2人1分, 3人2分, 4人3分)
func WinPoints(playerCount int) float64 {
	switch playerCount {
	case 2:
		return 1
	case 3:
		return 2
	case 4:
		return 3
	default:
		return 1
	}
}
