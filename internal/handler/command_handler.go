package handler

import (
	"context"
	"log/slog"

	apperrors "github.com/Mahdioshani/backend/internal/errors"
	"github.com/Mahdioshani/backend/internal/game"
	"github.com/Mahdioshani/backend/internal/match"
	"github.com/Mahdioshani/backend/internal/proto"
)

// CommandHandler 命令分发器
// 把入站命令路由到生命周期控制器，业务错误统一映射为应答错误码
type CommandHandler struct {
	matches *match.Service
	logger  *slog.Logger
}

// NewCommandHandler 创建命令分发器
func NewCommandHandler(matches *match.Service) *CommandHandler {
	return &CommandHandler{
		matches: matches,
		logger:  slog.Default().With("component", "CommandHandler"),
	}
}

// Handle 处理入站命令
func (h *CommandHandler) Handle(ctx context.Context, cmd *proto.Command) *proto.Reply {
	if cmd.MatchId == "" {
		return failure(apperrors.ErrInvalidParams)
	}

	switch cmd.Type {
	case proto.CommandSetup:
		return h.handleSetup(ctx, cmd)
	case proto.CommandStart:
		return h.toReply(h.matches.StartMatch(ctx, cmd.MatchId), nil)
	case proto.CommandAction:
		return h.handleAction(ctx, cmd)
	case proto.CommandReconnect:
		return h.handleReconnect(ctx, cmd)
	case proto.CommandDisconnect:
		return h.toReply(h.matches.Disconnect(ctx, cmd.MatchId, cmd.PlayerId), nil)
	case proto.CommandLeft:
		return h.handleLeft(ctx, cmd)
	default:
		h.logger.Warn("Unknown command type", "type", cmd.Type)
		return failure(apperrors.ErrInvalidParams)
	}
}

// handleSetup 处理建局命令
func (h *CommandHandler) handleSetup(ctx context.Context, cmd *proto.Command) *proto.Reply {
	if cmd.GameType == "" || len(cmd.PlayerIds) == 0 {
		return failure(apperrors.ErrInvalidParams)
	}

	err := h.matches.Setup(ctx, cmd.MatchId, game.GameType(cmd.GameType), cmd.PlayerIds)
	return h.toReply(err, nil)
}

// handleAction 处理玩家动作命令
func (h *CommandHandler) handleAction(ctx context.Context, cmd *proto.Command) *proto.Reply {
	if cmd.ActionName == "" {
		return failure(apperrors.ErrInvalidParams)
	}

	err := h.matches.HandleAction(ctx, cmd.MatchId, cmd.PlayerId, cmd.ActionName, cmd.Data)
	return h.toReply(err, nil)
}

// handleReconnect 处理重连命令，应答带全量快照
func (h *CommandHandler) handleReconnect(ctx context.Context, cmd *proto.Command) *proto.Reply {
	snapshot, err := h.matches.Reconnect(ctx, cmd.MatchId, cmd.PlayerId)
	return h.toReply(err, snapshot)
}

// handleLeft 处理玩家离开命令
// 对局不存在不算失败，应答数据里的 success 标记实际是否执行
func (h *CommandHandler) handleLeft(ctx context.Context, cmd *proto.Command) *proto.Reply {
	ack, err := h.matches.Left(ctx, cmd.MatchId, cmd.PlayerId)
	return h.toReply(err, ack)
}

// toReply 错误与数据映射为应答
func (h *CommandHandler) toReply(err error, data any) *proto.Reply {
	if err != nil {
		h.logger.Info("Command failed", "code", apperrors.GetCode(err), "error", err)
		return failure(err)
	}
	return &proto.Reply{Success: true, Data: data}
}

// failure 构建失败应答
func failure(err error) *proto.Reply {
	return &proto.Reply{
		Success: false,
		Code:    apperrors.GetCode(err),
		Message: apperrors.GetMessage(err),
	}
}
