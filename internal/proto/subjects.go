package proto

// NATS Subject 常量定义
const (
	// SubjectCommands Gateway -> Engine 命令 (request/reply)
	SubjectCommands = "engine.commands"

	// SubjectMatchEventPrefix Engine -> Consumers 事件前缀
	// 完整格式: engine.match.{match_id}.events
	SubjectMatchEventPrefix = "engine.match."
	SubjectMatchEventSuffix = ".events"

	// QueueGroupEngine Engine 服务队列组名称
	QueueGroupEngine = "engine-group"
)

// BuildMatchEventSubject 构建对局事件 Subject
func BuildMatchEventSubject(matchId string) string {
	return SubjectMatchEventPrefix + matchId + SubjectMatchEventSuffix
}
