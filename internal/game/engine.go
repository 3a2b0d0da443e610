package game

import (
	"encoding/json"
	"time"
)

// Engine 游戏变体引擎接口
// 纯状态机: 不做 I/O、不管理定时器，所有变更以带版本号的事件返回。
// 生命周期控制器只持有该接口，从不依赖具体变体
type Engine interface {
	// Setup 初始化对局状态，校验玩家数量
	Setup(matchId string, playerIds []int64) error

	// OnStart 开局钩子: 选定首个行动者并产出回合事件
	OnStart() []Event

	// HandleAction 处理玩家动作，按变体动作表分发
	HandleAction(playerId int64, actionName string, data json.RawMessage) ([]Event, error)

	// AutoPlay 超时代打: 代玩家执行第一个合法选项
	AutoPlay(playerId int64) []Event

	// RecordFault 记录一次超时失误并产出超时事件
	RecordFault(playerId int64) []Event

	// OnPlayerLeft 玩家离开钩子: 清理其棋子等，若离开者正在行动则推进回合
	OnPlayerLeft(playerId int64) []Event

	// CurrentActor 当前应当行动的玩家，无人行动返回 0
	CurrentActor() int64

	// IsTerminal 是否已达终局
	IsTerminal() bool

	// Result 终局结算 (纯函数，基于当前状态)
	Result() *Result

	// Snapshot 重连用全量快照，remaining 为本回合剩余时间
	Snapshot(remaining time.Duration) any

	// Base 基础状态 (玩家列表、版本号)
	Base() *BaseState

	// MinimumPlayers 低于该人数强制终局
	MinimumPlayers() int
}
