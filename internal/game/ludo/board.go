package ludo

// 棋盘常量
const (
	// TrackSize 共享环形赛道格数
	TrackSize = 52

	// startSpacing 相邻玩家入场点间距
	startSpacing = 13

	// mainRoadLimit 赛道上最多行走的步数，超过即转入终点道
	mainRoadLimit = 50

	// SideLaneFinish 终点道的虚拟终点格，恰好落在此格即完成
	SideLaneFinish = 5

	// PiecesPerPlayer 每名玩家的棋子数
	PiecesPerPlayer = 4

	// maxConsecutiveSixes 同一玩家连续掷出6的上限，达到即没收本回合
	maxConsecutiveSixes = 3
)

// safeCells 八个安全格: 己方棋子可以重叠、对方棋子不会被吃
var safeCells = [8]int{0, 8, 13, 21, 26, 34, 39, 47}

// IsSafeCell 判断赛道格是否为安全格
func IsSafeCell(index int) bool {
	for _, c := range safeCells {
		if c == index {
			return true
		}
	}
	return false
}

// StartPoint 座位对应的入场点
func StartPoint(seat int) int {
	return seat * startSpacing
}

// walkedSteps 从入场点到当前格已走过的步数 (环形)
func walkedSteps(start, current int) int {
	return (current - start + TrackSize) % TrackSize
}

// mainRoadDestination 计算赛道上棋子前进 steps 步后的落点
// 已走步数超过 50 时转入终点道；虚拟终点格 5 表示完成；越过终点为非法
func mainRoadDestination(start, current, steps int) (PieceMove, bool) {
	total := walkedSteps(start, current) + steps

	if total > mainRoadLimit {
		lane := total - mainRoadLimit - 1
		if lane > SideLaneFinish {
			return PieceMove{}, false
		}
		if lane == SideLaneFinish {
			return PieceMove{Status: PieceFinished}, true
		}
		return PieceMove{
			Status:   PiecePlaying,
			Position: &Position{Type: SideRoad, Index: lane},
		}, true
	}

	return PieceMove{
		Status:   PiecePlaying,
		Position: &Position{Type: MainRoad, Index: (current + steps) % TrackSize},
	}, true
}

// sideRoadDestination 计算终点道上棋子前进 steps 步后的落点
func sideRoadDestination(current, steps int) (PieceMove, bool) {
	total := current + steps

	if total > SideLaneFinish {
		return PieceMove{}, false
	}
	if total == SideLaneFinish {
		return PieceMove{Status: PieceFinished}, true
	}
	return PieceMove{
		Status:   PiecePlaying,
		Position: &Position{Type: SideRoad, Index: total},
	}, true
}
