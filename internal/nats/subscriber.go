package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/Mahdioshani/backend/internal/proto"
)

// CommandHandler 命令处理器接口
type CommandHandler interface {
	Handle(ctx context.Context, cmd *proto.Command) *proto.Reply
}

// SubscriberConfig Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int // Worker 数量
	BufferSize  int // 消息缓冲区大小
}

// CommandSubscriber 命令订阅器
// 队列组订阅实现多实例负载均衡，应答通过 msg.Respond 原路返回
type CommandSubscriber struct {
	nc           *nats.Conn
	handler      CommandHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	msgChan      chan *nats.Msg
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewCommandSubscriber 创建命令订阅器
func NewCommandSubscriber(nc *nats.Conn, handler CommandHandler, config SubscriberConfig) *CommandSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 100
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 10000
	}

	return &CommandSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default(),
		config:  config,
	}
}

// Start 启动订阅
func (s *CommandSubscriber) Start(ctx context.Context) error {
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	sub, err := s.nc.QueueSubscribe(proto.SubjectCommands, proto.QueueGroupEngine, func(msg *nats.Msg) {
		select {
		case s.msgChan <- msg:
		default:
			s.logger.Warn("Command buffer full, dropping message", "bufferSize", s.config.BufferSize)
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("NATS command subscriber started",
		"subject", proto.SubjectCommands,
		"queueGroup", proto.QueueGroupEngine,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

// worker 工作协程
func (s *CommandSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.msgChan:
			if !ok {
				return
			}
			s.handleCommand(ctx, msg)
		}
	}
}

// handleCommand 处理命令并应答
func (s *CommandSubscriber) handleCommand(ctx context.Context, msg *nats.Msg) {
	var cmd proto.Command
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		s.logger.Error("Failed to unmarshal command", "error", err)
		s.respond(msg, &proto.Reply{Success: false, Message: "malformed command"})
		return
	}

	reply := s.handler.Handle(ctx, &cmd)
	s.respond(msg, reply)
}

// respond 原路应答，无应答地址时跳过 (fire-and-forget 投递)
func (s *CommandSubscriber) respond(msg *nats.Msg, reply *proto.Reply) {
	if msg.Reply == "" {
		return
	}

	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("Failed to marshal reply", "error", err)
		return
	}

	if err := msg.Respond(data); err != nil {
		s.logger.Error("Failed to respond", "error", err)
	}
}

// Stop 停止订阅
func (s *CommandSubscriber) Stop() error {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}

	if s.msgChan != nil {
		close(s.msgChan)
	}

	s.wg.Wait()

	s.logger.Info("NATS command subscriber stopped")
	return nil
}

// BufferUsage 获取缓冲区使用情况 (用于监控)
func (s *CommandSubscriber) BufferUsage() (current int, capacity int) {
	if s.msgChan == nil {
		return 0, 0
	}
	return len(s.msgChan), cap(s.msgChan)
}
