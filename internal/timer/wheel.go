package timer

import (
	"sync"
	"time"
)

const (
	// SlotCount 时间轮槽位数量 (60秒)
	// 回合时限最大不超过一圈
	SlotCount = 60
)

// TimeWheel 秒级时间轮
type TimeWheel struct {
	slots       [SlotCount]*Slot
	currentSlot int
	slotMu      sync.RWMutex
	ticker      *time.Ticker
}

// NewTimeWheel 创建时间轮
func NewTimeWheel() *TimeWheel {
	tw := &TimeWheel{
		currentSlot: 0,
		ticker:      time.NewTicker(time.Second),
	}

	for i := 0; i < SlotCount; i++ {
		tw.slots[i] = NewSlot()
	}

	return tw
}

// Add 添加期限到时间轮，返回落入的槽位
// 调用方保存槽位索引，取消时凭它直接定位
func (tw *TimeWheel) Add(d *deadline, delay int) int {
	if delay < 1 || delay >= SlotCount {
		delay = SlotCount - 1
	}

	tw.slotMu.RLock()
	targetSlot := (tw.currentSlot + delay) % SlotCount
	tw.slotMu.RUnlock()

	tw.slots[targetSlot].Add(d)

	return targetSlot
}

// Remove 从指定槽位删除对局的期限
func (tw *TimeWheel) Remove(matchId string, slot int) bool {
	if slot < 0 || slot >= SlotCount {
		return false
	}
	return tw.slots[slot].Remove(matchId)
}

// Tick 推进时间轮，返回到期的所有期限
func (tw *TimeWheel) Tick() []*deadline {
	tw.slotMu.Lock()
	tw.currentSlot = (tw.currentSlot + 1) % SlotCount
	currentSlot := tw.currentSlot
	tw.slotMu.Unlock()

	return tw.slots[currentSlot].DrainExpired()
}

// CurrentSlot 获取当前槽位索引
func (tw *TimeWheel) CurrentSlot() int {
	tw.slotMu.RLock()
	defer tw.slotMu.RUnlock()

	return tw.currentSlot
}

// Stop 停止时间轮
func (tw *TimeWheel) Stop() {
	tw.ticker.Stop()
}

// Ticker 获取定时器
func (tw *TimeWheel) Ticker() *time.Ticker {
	return tw.ticker
}

// TotalCount 获取所有槽位的期限总数
func (tw *TimeWheel) TotalCount() int {
	total := 0
	for i := 0; i < SlotCount; i++ {
		total += tw.slots[i].Count()
	}
	return total
}
