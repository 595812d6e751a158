// hardware/scan_registry.go
package hardware

import (
	"errors"
	"strings"
	"sync"
	"time"

	"Gin_postgres_redis_servante/logging"

	"github.com/google/uuid"
)

var ErrScanNotFound = errors.New("scan session not found")

const (
	uidPrefix    = "UID:"
	sessionTTL   = 5 * time.Minute
	lastBadgeTTL = 10 * time.Second
)

func isUIDLine(line string) bool { return strings.HasPrefix(line, uidPrefix) }

// ScanSession 一次扫卡尝试，UID 由硬件事件异步填入，恰好被消费一次
type ScanSession struct {
	ID        string
	UID       string
	CreatedAt time.Time
}

// ScanRegistry 把串口上的 UID 事件桥接给轮询的前端。
// 纯进程内状态，重启即丢（会话本来就只活几分钟，重扫即可）。
// Gin 的 handler 是并行跑的，所以这里必须拿锁，没有单线程调度可以依赖。
type ScanRegistry struct {
	mu       sync.Mutex
	sessions map[string]*ScanSession

	lastUID  string
	lastSeen time.Time

	now func() time.Time
}

func NewScanRegistry() *ScanRegistry {
	return &ScanRegistry{
		sessions: make(map[string]*ScanSession),
		now:      time.Now,
	}
}

// HandleLine 是挂到 Transport 上的行处理器，只认 UID: 前缀
func (r *ScanRegistry) HandleLine(line string) {
	if !isUIDLine(line) {
		return
	}
	uid := strings.TrimSpace(strings.TrimPrefix(line, uidPrefix))
	if uid == "" {
		return
	}
	r.OnUIDReceived(uid)
}

// OnUIDReceived 把 UID 交给最早的一个还没拿到 UID 的会话（最旧者优先），
// 同时刷新“最后一次扫卡”槽位。
// 两个人同时扫卡时归属是按会话创建顺序定的——已知局限，协议层无法携带关联号。
func (r *ScanRegistry) OnUIDReceived(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastUID = uid
	r.lastSeen = r.now()

	var target *ScanSession
	for _, s := range r.sessions {
		if s.UID != "" {
			continue
		}
		if target == nil || s.CreatedAt.Before(target.CreatedAt) {
			target = s
		}
	}
	if target != nil {
		target.UID = uid
		logging.Log.Info("badge captured", "scanId", target.ID)
	} else {
		logging.Log.Debug("badge seen without open scan session")
	}
}

// StartScan 建新会话并顺手清掉过期的
func (r *ScanRegistry) StartScan() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-sessionTTL)
	for id, s := range r.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}

	id := uuid.NewString()
	r.sessions[id] = &ScanSession{ID: id, CreatedAt: r.now()}
	return id
}

// CheckScan 单次投递语义：第一个读到 UID 的轮询删掉会话，之后全是 NotFound。
// 还在等就返回空 UID。
func (r *ScanRegistry) CheckScan(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", ErrScanNotFound
	}
	if s.CreatedAt.Before(r.now().Add(-sessionTTL)) {
		delete(r.sessions, id)
		return "", ErrScanNotFound
	}
	if s.UID == "" {
		return "", nil
	}
	delete(r.sessions, id)
	return s.UID, nil
}

// CancelScan 幂等删除
func (r *ScanRegistry) CancelScan(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// LastScan 不消费地读最后一次扫卡，超过 10 秒当作没有
func (r *ScanRegistry) LastScan() (string, time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastUID == "" || r.now().Sub(r.lastSeen) > lastBadgeTTL {
		return "", time.Time{}, false
	}
	return r.lastUID, r.lastSeen, true
}

// ConsumeLast 读后即清，同一次扫卡只能被消费一次
func (r *ScanRegistry) ConsumeLast() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastUID == "" || r.now().Sub(r.lastSeen) > lastBadgeTTL {
		return "", false
	}
	uid := r.lastUID
	r.lastUID = ""
	return uid, true
}
