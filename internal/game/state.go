package game

// PlayerState 玩家基础状态
// 玩家从不被移出列表 (离开只是打标记)，保证座位顺序稳定
type PlayerState struct {
	PlayerId    int64 `json:"player_id"`
	IsConnected bool  `json:"is_connected"`
	HasLeft     bool  `json:"is_left_the_game"`
	FaultCount  int   `json:"fault_count"`
}

// BaseState 对局基础状态
// 各游戏变体的状态都嵌入它，版本号在每次对外可见的变更时 +1
type BaseState struct {
	Id           string         `json:"match_id"`
	StateVersion int64          `json:"state_version"`
	Players      []*PlayerState `json:"players"`
}

// NewBaseState 创建对局基础状态
func NewBaseState(matchId string, playerIds []int64) *BaseState {
	players := make([]*PlayerState, len(playerIds))
	for i, id := range playerIds {
		players[i] = &PlayerState{
			PlayerId:    id,
			IsConnected: true,
		}
	}

	return &BaseState{
		Id:           matchId,
		StateVersion: 1,
		Players:      players,
	}
}

// NewBaseStateFrom 使用外部玩家状态创建对局基础状态
// 变体把自己玩家结构里内嵌的 PlayerState 传进来，基础层和变体层共享同一份数据
func NewBaseStateFrom(matchId string, players []*PlayerState) *BaseState {
	return &BaseState{
		Id:           matchId,
		StateVersion: 1,
		Players:      players,
	}
}

// Player 按 ID 查找玩家，不存在返回 nil
func (s *BaseState) Player(playerId int64) *PlayerState {
	for _, p := range s.Players {
		if p.PlayerId == playerId {
			return p
		}
	}
	return nil
}

// Seat 返回玩家座位索引，不存在返回 -1
func (s *BaseState) Seat(playerId int64) int {
	for i, p := range s.Players {
		if p.PlayerId == playerId {
			return i
		}
	}
	return -1
}

// Bump 版本号 +1 并返回新版本
func (s *BaseState) Bump() int64 {
	s.StateVersion++
	return s.StateVersion
}

// Version 当前版本号
func (s *BaseState) Version() int64 {
	return s.StateVersion
}

// ApplyReconnect 应用玩家重连
func (s *BaseState) ApplyReconnect(playerId int64) bool {
	p := s.Player(playerId)
	if p == nil {
		return false
	}

	p.IsConnected = true
	s.Bump()
	return true
}

// ApplyDisconnect 应用玩家断线
func (s *BaseState) ApplyDisconnect(playerId int64) bool {
	p := s.Player(playerId)
	if p == nil {
		return false
	}

	p.IsConnected = false
	s.Bump()
	return true
}

// ApplyLeft 应用玩家离开 (标记，不删除)
func (s *BaseState) ApplyLeft(playerId int64) bool {
	p := s.Player(playerId)
	if p == nil {
		return false
	}

	p.HasLeft = true
	s.Bump()
	return true
}

// ActivePlayers 返回未离开的玩家
func (s *BaseState) ActivePlayers() []*PlayerState {
	active := make([]*PlayerState, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.HasLeft {
			active = append(active, p)
		}
	}
	return active
}

// ActiveCount 未离开的玩家数
func (s *BaseState) ActiveCount() int {
	count := 0
	for _, p := range s.Players {
		if !p.HasLeft {
			count++
		}
	}
	return count
}
