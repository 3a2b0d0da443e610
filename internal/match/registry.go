package match

import "sync"

// Registry 对局注册表
type Registry struct {
	matches sync.Map // matchId -> *Match
}

// NewRegistry 创建对局注册表
func NewRegistry() *Registry {
	return &Registry{}
}

// Get 获取对局
func (r *Registry) Get(matchId string) (*Match, bool) {
	v, ok := r.matches.Load(matchId)
	if !ok {
		return nil, false
	}
	return v.(*Match), true
}

// Store 尝试登记对局，已存在时返回已有对局和 true
func (r *Registry) Store(m *Match) (*Match, bool) {
	v, loaded := r.matches.LoadOrStore(m.Id, m)
	return v.(*Match), loaded
}

// Remove 移除对局
func (r *Registry) Remove(matchId string) {
	r.matches.Delete(matchId)
}

// Count 当前对局数量
func (r *Registry) Count() int {
	count := 0
	r.matches.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
