package timer

import "sync"

// Slot 时间轮槽位
type Slot struct {
	mu        sync.Mutex
	deadlines map[string]*deadline // key: matchId
}

// NewSlot 创建新槽位
func NewSlot() *Slot {
	return &Slot{
		deadlines: make(map[string]*deadline),
	}
}

// Add 添加期限到槽位
func (s *Slot) Add(d *deadline) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deadlines[d.matchId] = d
}

// Remove 从槽位删除对局的期限
func (s *Slot) Remove(matchId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deadlines[matchId]; exists {
		delete(s.deadlines, matchId)
		return true
	}
	return false
}

// DrainExpired 获取所有期限并清空槽位
func (s *Slot) DrainExpired() []*deadline {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.deadlines) == 0 {
		return nil
	}

	expired := make([]*deadline, 0, len(s.deadlines))
	for _, d := range s.deadlines {
		expired = append(expired, d)
	}

	s.deadlines = make(map[string]*deadline)

	return expired
}

// Count 获取槽位期限数量
func (s *Slot) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.deadlines)
}
