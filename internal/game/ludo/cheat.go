package ludo

import (
	"regexp"
	"strconv"
)

// 作弊码种类
const (
	cheatMoveMain = "move_main"
	cheatMoveSide = "move_side"
	cheatRollDice = "roll_dice"
)

// cheatPatterns 作弊码表，按声明顺序匹配
var cheatPatterns = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{cheatMoveMain, regexp.MustCompile(`^move_main_(\d+)_(\d+)$`)},
	{cheatMoveSide, regexp.MustCompile(`^move_side_(\d+)_(\d+)$`)},
	{cheatRollDice, regexp.MustCompile(`^roll_dice_(\d+)$`)},
}

// parsedCheat 解析后的作弊指令
type parsedCheat struct {
	kind   string
	values []int
}

// parseCheat 解析并校验作弊码，非法返回 nil
func parseCheat(code string) *parsedCheat {
	for _, entry := range cheatPatterns {
		match := entry.pattern.FindStringSubmatch(code)
		if match == nil {
			continue
		}

		values := make([]int, len(match)-1)
		for i, raw := range match[1:] {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil
			}
			values[i] = v
		}

		c := &parsedCheat{kind: entry.kind, values: values}
		if !c.valid() {
			return nil
		}
		return c
	}
	return nil
}

// valid 数值范围校验
func (c *parsedCheat) valid() bool {
	switch c.kind {
	case cheatMoveMain:
		return len(c.values) == 2 &&
			c.values[0] >= 1 && c.values[0] <= PiecesPerPlayer &&
			c.values[1] >= 0 && c.values[1] < TrackSize
	case cheatMoveSide:
		return len(c.values) == 2 &&
			c.values[0] >= 1 && c.values[0] <= PiecesPerPlayer &&
			c.values[1] >= 0 && c.values[1] < SideLaneFinish
	case cheatRollDice:
		return len(c.values) == 1 &&
			c.values[0] >= 1 && c.values[0] <= 6
	}
	return false
}
