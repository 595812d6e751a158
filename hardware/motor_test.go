package hardware

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"Gin_postgres_redis_servante/config"
)

// fakePort 只记录写入，Read 永不返回数据（测试里不启动 monitor）
type fakePort struct {
	mu     sync.Mutex
	writes []string
	closed bool
}

func (f *fakePort) Read(p []byte) (int, error) { select {} }

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, string(p))
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

func newTestMotor() (*MotorController, *Transport, *fakePort) {
	tr := NewTransport(config.SerialConfig{Baud: 9600})
	m := NewMotorController(tr)
	fp := &fakePort{}
	tr.attach(fp, "/dev/ttyFAKE")
	return m, tr, fp
}

func TestOpenDrawerCommandMapping(t *testing.T) {
	m, _, fp := newTestMotor()

	cases := []struct {
		drawer string
		want   string
	}{
		{"1", "xo\n"},
		{"2", "yo\n"},
		{"3", "zo\n"},
		{"4", "ao\n"},
	}
	for _, tc := range cases {
		if err := m.OpenDrawer(tc.drawer); err != nil {
			t.Fatalf("OpenDrawer(%s): %v", tc.drawer, err)
		}
	}
	got := fp.sent()
	for i, tc := range cases {
		if got[i] != tc.want {
			t.Errorf("drawer %s: sent %q, want %q", tc.drawer, got[i], tc.want)
		}
	}
}

func TestCloseDrawerAndStop(t *testing.T) {
	m, _, fp := newTestMotor()

	if err := m.CloseDrawer("2"); err != nil {
		t.Fatal(err)
	}
	if err := m.StopAll(); err != nil {
		t.Fatal(err)
	}
	got := fp.sent()
	if len(got) != 2 || got[0] != "yf\n" || got[1] != "s\n" {
		t.Errorf("unexpected commands: %v", got)
	}
}

func TestInvalidDrawerNeverTouchesTransport(t *testing.T) {
	m, _, fp := newTestMotor()

	for _, d := range []string{"0", "5", "-1", "abc", ""} {
		if err := m.OpenDrawer(d); !errors.Is(err, ErrInvalidDrawer) {
			t.Errorf("OpenDrawer(%q): expected ErrInvalidDrawer, got %v", d, err)
		}
		if err := m.CloseDrawer(d); !errors.Is(err, ErrInvalidDrawer) {
			t.Errorf("CloseDrawer(%q): expected ErrInvalidDrawer, got %v", d, err)
		}
	}
	if n := len(fp.sent()); n != 0 {
		t.Errorf("invalid drawers must not reach the port, got %d writes", n)
	}
}

func TestMotorNotConnected(t *testing.T) {
	tr := NewTransport(config.SerialConfig{Baud: 9600})
	m := NewMotorController(tr)

	if err := m.OpenDrawer("1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if err := m.StopAll(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestMotorStatusSnapshot(t *testing.T) {
	m, tr, _ := newTestMotor()

	st := m.Status()
	if !st.Connected || st.Port != "/dev/ttyFAKE" {
		t.Errorf("unexpected status: %+v", st)
	}

	// 电机行进快照，UID 行不算
	m.handleLine("drawer 1 opened")
	m.handleLine("UID:0A1B2C3D")
	st = m.Status()
	if st.LastResponse != "drawer 1 opened" {
		t.Errorf("expected motor line in snapshot, got %q", st.LastResponse)
	}

	tr.Close()
	st = m.Status()
	if st.Connected {
		t.Error("expected disconnected after Close")
	}
}

func TestDrawerNumberParse(t *testing.T) {
	if n, ok := DrawerNumber("3"); !ok || n != 3 {
		t.Errorf("DrawerNumber(3) = %d, %v", n, ok)
	}
	for _, d := range []string{"0", "5", "x"} {
		if _, ok := DrawerNumber(d); ok {
			t.Errorf("DrawerNumber(%q) should fail", d)
		}
	}
	if !strings.HasPrefix("UID:AB", uidPrefix) {
		t.Fatal("uid prefix mismatch")
	}
}
