package match

import (
	"sync"
	"time"

	"github.com/Mahdioshani/backend/internal/game"
)

// Match 一局对局
// 互斥锁保证同一对局的命令、超时回调串行执行；
// ended 标记终局，终局后的命令一律按对局不存在处理
type Match struct {
	Id        string
	GameType  game.GameType
	Engine    game.Engine
	CreatedAt time.Time

	mu    sync.Mutex
	ended bool
}

// NewMatch 创建对局
func NewMatch(matchId string, gameType game.GameType, engine game.Engine) *Match {
	return &Match{
		Id:        matchId,
		GameType:  gameType,
		Engine:    engine,
		CreatedAt: time.Now(),
	}
}

// Lock 锁定对局
func (m *Match) Lock() {
	m.mu.Lock()
}

// Unlock 解锁对局
func (m *Match) Unlock() {
	m.mu.Unlock()
}

// Ended 是否已终局 (须持锁调用)
func (m *Match) Ended() bool {
	return m.ended
}

// MarkEnded 标记终局 (须持锁调用)
func (m *Match) MarkEnded() {
	m.ended = true
}
