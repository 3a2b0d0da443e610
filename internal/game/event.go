package game

// Event 引擎产出的领域事件
// Version 是事件产生时刻的状态版本号，由引擎在变更后立即打上
type Event struct {
	Type    string
	Payload any
	Version int64
}

// NewEvent 创建事件
func NewEvent(eventType string, payload any, version int64) Event {
	return Event{
		Type:    eventType,
		Payload: payload,
		Version: version,
	}
}
