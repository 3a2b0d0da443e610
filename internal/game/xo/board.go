package xo

// SubBoardCount 子棋盘数量
const SubBoardCount = 9

// lines 3x3 棋盘上的 8 条连线 (行、列、对角线)
var lines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// newSubBoard 创建空子棋盘
func newSubBoard(id int) *SubBoard {
	b := &SubBoard{Id: id, Status: StatusRunning}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			b.Cells[r][c] = emptyCell
		}
	}
	return b
}

// recompute 落子后重算子棋盘状态
// 已判定的棋盘保持原状态
func (b *SubBoard) recompute() {
	if b.Status != StatusRunning {
		return
	}

	for _, line := range lines {
		first := b.Cells[line[0][0]][line[0][1]]
		if first == emptyCell {
			continue
		}
		if b.Cells[line[1][0]][line[1][1]] == first && b.Cells[line[2][0]][line[2][1]] == first {
			b.Status = BoardStatus(first)
			return
		}
	}

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if b.Cells[r][c] == emptyCell {
				return
			}
		}
	}
	b.Status = StatusDraw
}

// outerStatus 由 9 个子棋盘状态推导整局状态
// 只有胜方符号参与连线判定，DRAW 的子棋盘不算任何一方
func outerStatus(subBoards [SubBoardCount]*SubBoard) BoardStatus {
	status := func(r, c int) BoardStatus {
		return subBoards[r*3+c].Status
	}

	for _, line := range lines {
		first := status(line[0][0], line[0][1])
		if first != StatusWinX && first != StatusWinO {
			continue
		}
		if status(line[1][0], line[1][1]) == first && status(line[2][0], line[2][1]) == first {
			return first
		}
	}

	for _, b := range subBoards {
		if b.Status == StatusRunning {
			return StatusRunning
		}
	}
	return StatusDraw
}

// dictatedSubBoard 上一手落子的行列决定下一手必须进入的子棋盘
func dictatedSubBoard(move *Move) int {
	return move.Row*3 + move.Col
}
