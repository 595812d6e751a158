// hardware/serial.go
package hardware

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"Gin_postgres_redis_servante/config"
	"Gin_postgres_redis_servante/logging"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var (
	ErrNotConnected        = errors.New("serial not connected")
	ErrHardwareUnavailable = errors.New("no matching serial device found")
	ErrAckTimeout          = errors.New("timed out waiting for device response")
	ErrAwaitBusy           = errors.New("another command is already awaiting a response")
)

// LineHandler 收到一行（已去掉换行）就被调用。
// 所有 handler 按注册顺序在同一个读取 goroutine 里依次执行，
// 这是 RFID 和电机两套协议共用一条物理链路还能不打架的前提。
type LineHandler func(line string)

// Transport 独占唯一的一条串口链路。
// 断线 / 找不到设备都是降级而不是崩溃：connected=false，写入报 ErrNotConnected。
type Transport struct {
	cfg config.SerialConfig

	mu        sync.Mutex
	port      io.ReadWriteCloser
	portName  string
	connected bool
	handlers  []LineHandler
	awaiting  chan string // SendAwait 的应答槽，非 UID 行会投递到这里
}

func NewTransport(cfg config.SerialConfig) *Transport {
	return &Transport{cfg: cfg}
}

// Open 发现并打开设备。SERIAL_PORT 显式指定优先，否则按 USB VID 扫描。
func (t *Transport) Open() error {
	name := t.cfg.Port
	if name == "" {
		found, err := discoverByVID(t.cfg.VID)
		if err != nil {
			return err
		}
		name = found
	}

	mode := &serial.Mode{BaudRate: t.cfg.Baud}
	port, err := serial.Open(name, mode)
	if err != nil {
		return fmt.Errorf("open serial %s: %w", name, err)
	}
	t.attach(port, name)
	go t.monitor()
	logging.Log.Info("serial connected", "port", name, "baud", t.cfg.Baud)
	return nil
}

func discoverByVID(vid string) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("list serial ports: %w", err)
	}
	for _, p := range ports {
		if p.IsUSB && strings.EqualFold(p.VID, vid) {
			return p.Name, nil
		}
	}
	return "", ErrHardwareUnavailable
}

// attach 挂上一个已打开的流（测试里用 pipe 顶替真实串口）
func (t *Transport) attach(rw io.ReadWriteCloser, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.port = rw
	t.portName = name
	t.connected = true
}

// monitor 是唯一的流读取者，把每一行分发给所有已注册 handler。
// 读失败视为断线：降级，不退出进程。
func (t *Transport) monitor() {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		// 启动前链路已被关掉（Close 抢先于本 goroutine 调度），无流可读
		return
	}

	scan := bufio.NewScanner(port)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		t.dispatch(line)
	}
	if err := scan.Err(); err != nil {
		logging.Log.Warn("serial read failed, degrading", "err", err)
	}
	t.markDisconnected()
}

func (t *Transport) dispatch(line string) {
	t.mu.Lock()
	handlers := make([]LineHandler, len(t.handlers))
	copy(handlers, t.handlers)
	waiter := t.awaiting
	t.mu.Unlock()

	for _, h := range handlers {
		h(line)
	}

	// UID 行属于 RFID 协议，不当作电机应答
	if waiter != nil && !strings.HasPrefix(line, uidPrefix) {
		select {
		case waiter <- line:
		default:
		}
	}
}

func (t *Transport) markDisconnected() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port != nil {
		_ = t.port.Close()
	}
	t.port = nil
	t.connected = false
}

// OnLine 注册一个行处理器。电机先注册，RFID 后挂上，互不影响。
func (t *Transport) OnLine(h LineHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, h)
}

func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *Transport) PortName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.portName
}

// Send 尽力而为地写一条指令（自动补换行），不等应答
func (t *Transport) Send(cmd string) error {
	t.mu.Lock()
	port := t.port
	ok := t.connected
	t.mu.Unlock()
	if !ok || port == nil {
		return ErrNotConnected
	}
	if _, err := port.Write([]byte(cmd + "\n")); err != nil {
		logging.Log.Warn("serial write failed", "cmd", cmd, "err", err)
		t.markDisconnected()
		return err
	}
	return nil
}

// SendAwait 发送指令并等下一条非 UID 行作为应答，超时报 ErrAckTimeout。
// 协议本身没有请求应答关联，这只是给需要回执的调用方的附加便利。
func (t *Transport) SendAwait(cmd string, timeout time.Duration) (string, error) {
	ch := make(chan string, 1)
	t.mu.Lock()
	if t.awaiting != nil {
		// 应答槽只有一个：并发的第二个等待者直接拒绝，不能互相顶掉
		t.mu.Unlock()
		return "", ErrAwaitBusy
	}
	t.awaiting = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.awaiting = nil
		t.mu.Unlock()
	}()

	if err := t.Send(cmd); err != nil {
		return "", err
	}
	select {
	case line := <-ch:
		return line, nil
	case <-time.After(timeout):
		return "", ErrAckTimeout
	}
}

func (t *Transport) Close() {
	t.markDisconnected()
}
