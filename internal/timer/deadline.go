package timer

import "time"

// deadline 一条回合期限
// gen 是武装时分配的代号，句柄被替换或取消后旧期限即失效
type deadline struct {
	matchId  string
	playerId int64
	gen      uint64
	slot     int
	armedAt  time.Time
	duration time.Duration
}
