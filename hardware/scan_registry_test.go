package hardware

import (
	"sync"
	"testing"
	"time"
)

func TestScanSingleDelivery(t *testing.T) {
	reg := NewScanRegistry()
	id := reg.StartScan()

	// 还没扫卡：等待中，不报错
	uid, err := reg.CheckScan(id)
	if err != nil || uid != "" {
		t.Fatalf("expected waiting state, got uid=%q err=%v", uid, err)
	}

	reg.HandleLine("UID:0A1B2C3D")

	uid, err = reg.CheckScan(id)
	if err != nil {
		t.Fatalf("expected uid, got err: %v", err)
	}
	if uid != "0A1B2C3D" {
		t.Errorf("expected uid 0A1B2C3D, got %q", uid)
	}

	// 第二次查询：会话已被消费
	if _, err := reg.CheckScan(id); err != ErrScanNotFound {
		t.Errorf("expected ErrScanNotFound after consumption, got %v", err)
	}
}

func TestScanConcurrentPollsExactlyOneWins(t *testing.T) {
	reg := NewScanRegistry()
	id := reg.StartScan()
	reg.OnUIDReceived("CAFEBABE")

	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	got := 0
	notFound := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uid, err := reg.CheckScan(id)
			mu.Lock()
			defer mu.Unlock()
			if err == ErrScanNotFound {
				notFound++
			} else if uid == "CAFEBABE" {
				got++
			}
		}()
	}
	wg.Wait()

	if got != 1 {
		t.Errorf("expected exactly one poll to observe the uid, got %d", got)
	}
	if notFound != n-1 {
		t.Errorf("expected %d NotFound, got %d", n-1, notFound)
	}
}

func TestScanOldestOpenSessionWins(t *testing.T) {
	reg := NewScanRegistry()
	now := time.Now()
	reg.now = func() time.Time { now = now.Add(time.Second); return now }

	first := reg.StartScan()
	second := reg.StartScan()

	reg.OnUIDReceived("11111111")

	uid, err := reg.CheckScan(first)
	if err != nil || uid != "11111111" {
		t.Errorf("oldest session should get the uid, got uid=%q err=%v", uid, err)
	}
	uid, err = reg.CheckScan(second)
	if err != nil || uid != "" {
		t.Errorf("newer session should still be waiting, got uid=%q err=%v", uid, err)
	}
}

func TestScanExpiry(t *testing.T) {
	reg := NewScanRegistry()
	base := time.Now()
	reg.now = func() time.Time { return base }

	id := reg.StartScan()

	// 5 分钟后：即使从未被轮询过也不可达
	reg.now = func() time.Time { return base.Add(sessionTTL + time.Second) }
	if _, err := reg.CheckScan(id); err != ErrScanNotFound {
		t.Errorf("expected expired session to be gone, got %v", err)
	}

	// StartScan 顺手清扫
	reg.now = func() time.Time { return base }
	stale := reg.StartScan()
	reg.now = func() time.Time { return base.Add(sessionTTL + time.Minute) }
	reg.StartScan()
	reg.mu.Lock()
	_, ok := reg.sessions[stale]
	reg.mu.Unlock()
	if ok {
		t.Error("expected stale session to be swept by StartScan")
	}
}

func TestCancelScanIdempotent(t *testing.T) {
	reg := NewScanRegistry()
	id := reg.StartScan()
	reg.CancelScan(id)
	reg.CancelScan(id) // 再删一次不能炸
	if _, err := reg.CheckScan(id); err != ErrScanNotFound {
		t.Errorf("expected NotFound after cancel, got %v", err)
	}
}

func TestLastScanTTLAndConsume(t *testing.T) {
	reg := NewScanRegistry()
	base := time.Now()
	reg.now = func() time.Time { return base }

	if _, _, ok := reg.LastScan(); ok {
		t.Error("expected empty slot before any scan")
	}

	reg.OnUIDReceived("DEADBEEF")

	uid, ts, ok := reg.LastScan()
	if !ok || uid != "DEADBEEF" || !ts.Equal(base) {
		t.Fatalf("expected fresh last scan, got uid=%q ok=%v", uid, ok)
	}
	// 非消费读可以重复
	if _, _, ok := reg.LastScan(); !ok {
		t.Error("LastScan should not consume the slot")
	}

	// 消费一次后清空
	if uid, ok := reg.ConsumeLast(); !ok || uid != "DEADBEEF" {
		t.Fatalf("expected consume to return the uid, got %q ok=%v", uid, ok)
	}
	if _, ok := reg.ConsumeLast(); ok {
		t.Error("second consume should find nothing")
	}

	// 超过 10 秒当作没有
	reg.OnUIDReceived("AA55AA55")
	reg.now = func() time.Time { return base.Add(lastBadgeTTL + time.Second) }
	if _, _, ok := reg.LastScan(); ok {
		t.Error("expected stale badge to read as empty")
	}
}

func TestHandleLineIgnoresMotorLines(t *testing.T) {
	reg := NewScanRegistry()
	id := reg.StartScan()
	reg.HandleLine("drawer 2 opened")
	reg.HandleLine("UID:")

	uid, err := reg.CheckScan(id)
	if err != nil || uid != "" {
		t.Errorf("motor lines must not resolve a scan, got uid=%q err=%v", uid, err)
	}
}
