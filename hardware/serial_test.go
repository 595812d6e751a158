package hardware

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"Gin_postgres_redis_servante/config"
)

// duplexPort 模拟设备：Read 吐设备发来的行，Write 记录主机下发的指令
type duplexPort struct {
	pr *io.PipeReader

	mu     sync.Mutex
	writes []string
}

func newDuplexPort() (*duplexPort, *io.PipeWriter) {
	pr, pw := io.Pipe()
	return &duplexPort{pr: pr}, pw
}

func (d *duplexPort) Read(p []byte) (int, error) { return d.pr.Read(p) }

func (d *duplexPort) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, string(p))
	return len(p), nil
}

func (d *duplexPort) Close() error { return d.pr.Close() }

func (d *duplexPort) sawWrite(cmd string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range d.writes {
		if w == cmd {
			return true
		}
	}
	return false
}

func startTestTransport(t *testing.T) (*Transport, *duplexPort, *io.PipeWriter) {
	t.Helper()
	tr := NewTransport(config.SerialConfig{Baud: 9600})
	dev, feed := newDuplexPort()
	tr.attach(dev, "/dev/ttyFAKE")
	go tr.monitor()
	return tr, dev, feed
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestMonitorDispatchesToHandlersInOrder(t *testing.T) {
	tr, _, feed := startTestTransport(t)
	defer tr.Close()

	var mu sync.Mutex
	var seen []string
	tr.OnLine(func(line string) {
		mu.Lock()
		seen = append(seen, "motor:"+line)
		mu.Unlock()
	})
	tr.OnLine(func(line string) {
		mu.Lock()
		seen = append(seen, "rfid:"+line)
		mu.Unlock()
	})

	if _, err := feed.Write([]byte("UID:0A1B2C3D\ndrawer 1 opened\n")); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 4
	}, "expected both handlers to see both lines")

	mu.Lock()
	defer mu.Unlock()
	want := []string{
		"motor:UID:0A1B2C3D", "rfid:UID:0A1B2C3D",
		"motor:drawer 1 opened", "rfid:drawer 1 opened",
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("dispatch[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestTransportFeedsScanRegistryAndMotor(t *testing.T) {
	tr, _, feed := startTestTransport(t)
	defer tr.Close()

	motor := NewMotorController(tr)
	reg := NewScanRegistry()
	tr.OnLine(reg.HandleLine)

	id := reg.StartScan()
	if _, err := feed.Write([]byte("ready\nUID:0A1B2C3D\n")); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		uid, err := reg.CheckScan(id)
		if err != nil {
			t.Fatalf("scan session vanished: %v", err)
		}
		return uid == "0A1B2C3D"
	}, "expected the UID line to resolve the scan session")

	if st := motor.Status(); st.LastResponse != "ready" {
		t.Errorf("expected motor to keep the non-UID line, got %q", st.LastResponse)
	}
}

func TestSendAppendsNewline(t *testing.T) {
	tr, dev, _ := startTestTransport(t)
	defer tr.Close()

	if err := tr.Send("xo"); err != nil {
		t.Fatal(err)
	}
	if !dev.sawWrite("xo\n") {
		t.Error("expected newline-terminated command on the wire")
	}
}

func TestSendAwait(t *testing.T) {
	tr, dev, feed := startTestTransport(t)
	defer tr.Close()

	done := make(chan struct{})
	var line string
	var err error
	go func() {
		line, err = tr.SendAwait("yo", time.Second)
		close(done)
	}()

	waitFor(t, func() bool { return dev.sawWrite("yo\n") }, "command never written")
	// UID 行不能被当成应答
	if _, werr := feed.Write([]byte("UID:FFFF0000\ndrawer 2 opened\n")); werr != nil {
		t.Fatal(werr)
	}

	<-done
	if err != nil {
		t.Fatal(err)
	}
	if line != "drawer 2 opened" {
		t.Errorf("expected motor ack, got %q", line)
	}
}

func TestSendAwaitRejectsConcurrentCaller(t *testing.T) {
	tr, dev, feed := startTestTransport(t)
	defer tr.Close()

	done := make(chan struct{})
	var line string
	var err error
	go func() {
		line, err = tr.SendAwait("xo", time.Second)
		close(done)
	}()
	waitFor(t, func() bool { return dev.sawWrite("xo\n") }, "first command never written")

	// 第一个等待者占着应答槽：第二个立刻被拒，不能顶掉第一个
	if _, berr := tr.SendAwait("yo", time.Second); !errors.Is(berr, ErrAwaitBusy) {
		t.Errorf("expected ErrAwaitBusy for concurrent SendAwait, got %v", berr)
	}

	if _, werr := feed.Write([]byte("drawer 1 opened\n")); werr != nil {
		t.Fatal(werr)
	}
	<-done
	if err != nil || line != "drawer 1 opened" {
		t.Errorf("first waiter must still get its ack, got line=%q err=%v", line, err)
	}

	// 槽位释放后可以再用（等指令上线后再回 ack，避免早到被丢）
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && !dev.sawWrite("yo\n") {
			time.Sleep(5 * time.Millisecond)
		}
		_, _ = feed.Write([]byte("drawer 2 opened\n"))
	}()
	if _, err := tr.SendAwait("yo", 2*time.Second); err != nil {
		t.Errorf("SendAwait after release: %v", err)
	}
}

func TestSendAwaitTimeout(t *testing.T) {
	tr, _, _ := startTestTransport(t)
	defer tr.Close()

	if _, err := tr.SendAwait("zo", 20*time.Millisecond); !errors.Is(err, ErrAckTimeout) {
		t.Errorf("expected ErrAckTimeout, got %v", err)
	}
}

func TestDisconnectDegrades(t *testing.T) {
	tr, _, feed := startTestTransport(t)

	_ = feed.Close() // 设备拔线
	waitFor(t, func() bool { return !tr.Connected() }, "expected transport to mark itself disconnected")

	if err := tr.Send("xo"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected after disconnect, got %v", err)
	}
}

func TestNotConnectedBeforeAttach(t *testing.T) {
	tr := NewTransport(config.SerialConfig{Baud: 9600})
	if tr.Connected() {
		t.Error("fresh transport must not report connected")
	}
	if err := tr.Send("s"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if !strings.HasPrefix(uidPrefix, "UID") {
		t.Fatal("uid prefix changed")
	}
}
