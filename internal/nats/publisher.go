package nats

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Mahdioshani/backend/internal/proto"
)

// EventPublisher 对局事件发布器
// 每个对局一个 Subject，订阅方按 match_id 精确订阅
type EventPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewEventPublisher 创建对局事件发布器
func NewEventPublisher(nc *nats.Conn) *EventPublisher {
	return &EventPublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// Publish 发布对局事件
func (p *EventPublisher) Publish(envelope *proto.EventEnvelope) error {
	subject := proto.BuildMatchEventSubject(envelope.MatchId)
	data, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error("Failed to marshal event", "matchId", envelope.MatchId, "type", envelope.Type, "error", err)
		return err
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event", "subject", subject, "type", envelope.Type, "error", err)
		return err
	}

	p.logger.Debug("Published match event",
		"subject", subject,
		"type", envelope.Type,
		"stateVersion", envelope.StateVersion)
	return nil
}
