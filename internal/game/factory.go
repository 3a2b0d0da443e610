package game

import (
	"log/slog"

	apperrors "github.com/Mahdioshani/backend/internal/errors"
)

// GameType 游戏变体类型
type GameType string

const (
	GameTypeLudo GameType = "ludo" // 飞行棋 (环形赛道)
	GameTypeXO   GameType = "xo"   // 嵌套井字棋
)

// Constructor 变体引擎构造函数
type Constructor func() Engine

// Factory 变体引擎工厂
// 新变体在这里注册，控制器通过工厂创建引擎实例 (每个对局一个实例)
type Factory struct {
	constructors map[GameType]Constructor
	logger       *slog.Logger
}

// NewFactory 创建变体引擎工厂
func NewFactory() *Factory {
	return &Factory{
		constructors: make(map[GameType]Constructor),
		logger:       slog.Default().With("component", "GameFactory"),
	}
}

// Register 注册变体
func (f *Factory) Register(gameType GameType, ctor Constructor) {
	f.constructors[gameType] = ctor
}

// CreateEngine 创建变体引擎实例
func (f *Factory) CreateEngine(gameType GameType) (Engine, error) {
	ctor, ok := f.constructors[gameType]
	if !ok {
		return nil, apperrors.ErrUnsupportedVariant
	}

	f.logger.Info("Creating game engine", "gameType", string(gameType))
	return ctor(), nil
}
