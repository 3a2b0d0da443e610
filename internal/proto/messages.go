package proto

import "encoding/json"

// ============== 上行命令 (Gateway -> Engine) ==============

// 命令类型常量
const (
	CommandSetup      = "setup"
	CommandStart      = "start"
	CommandAction     = "player_action"
	CommandReconnect  = "reconnect"
	CommandDisconnect = "player_disconnect"
	CommandLeft       = "player_left"
)

// Command 入站命令封装
// 字段命名遵循对外序列化契约 (snake_case)，内部模型保持自己的命名
type Command struct {
	Type       string          `json:"type"`
	MatchId    string          `json:"match_id"`
	GameType   string          `json:"game_type,omitempty"`
	PlayerId   int64           `json:"player_id,omitempty"`
	PlayerIds  []int64         `json:"player_ids,omitempty"`
	ActionName string          `json:"action_name,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Reply 命令应答
type Reply struct {
	Success bool   `json:"success"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ============== 下行事件 (Engine -> Consumers) ==============

// 生命周期事件类型
const (
	EventMatchSetup       = "MATCH_SETUP"
	EventMatchStart       = "MATCH_START"
	EventMatchResult      = "MATCH_RESULT"
	EventPlayerDisconnect = "PLAYER_DISCONNECT"
	EventPlayerReconnect  = "PLAYER_RECONNECT"
	EventPlayerLeft       = "PLAYER_LEFT"
)

// EventEnvelope 事件信封
// 每次状态变更发布一条，消费者用 state_version 检测漏事件并触发重新同步
type EventEnvelope struct {
	MatchId      string `json:"match_id"`
	Type         string `json:"type"`
	Payload      any    `json:"payload"`
	StateVersion int64  `json:"state_version"`
}

// MatchSetupPayload MATCH_SETUP 事件载荷
type MatchSetupPayload struct {
	MatchId   string  `json:"match_id"`
	GameType  string  `json:"game_type"`
	PlayerIds []int64 `json:"player_ids"`
}

// PlayerLeftPayload PLAYER_LEFT 事件载荷
type PlayerLeftPayload struct {
	PlayerId      int64 `json:"player_id"`
	HasEndedMatch bool  `json:"has_ended_match"`
}

// PlayerConnPayload PLAYER_DISCONNECT / PLAYER_RECONNECT 事件载荷
type PlayerConnPayload struct {
	PlayerId int64 `json:"player_id"`
}

// LeftAck player_left 命令应答载荷
type LeftAck struct {
	Success       bool   `json:"success"`
	HasEndedMatch bool   `json:"has_ended_match"`
	MatchId       string `json:"match_id"`
	PlayerId      int64  `json:"player_id"`
}
