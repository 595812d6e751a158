// hardware/motor.go
package hardware

import (
	"errors"
	"strconv"
	"sync"

	"Gin_postgres_redis_servante/logging"
)

var ErrInvalidDrawer = errors.New("drawer number must be 1-4")

// 抽屉号 → 执行器代号；指令 = 代号 + o(开)/f(关)，s 是全部急停
var drawerMotors = map[int]string{
	1: "x",
	2: "y",
	3: "z",
	4: "a",
}

const stopAllCommand = "s"

type MotorStatus struct {
	Connected    bool   `json:"connected"`
	Port         string `json:"port,omitempty"`
	LastResponse string `json:"lastResponse,omitempty"`
}

// MotorController 把逻辑抽屉号翻译成串口指令。
// 指令是 fire-and-forget：发出去就算成功，应答行只记不关联。
type MotorController struct {
	tr *Transport

	mu           sync.Mutex
	lastResponse string
}

func NewMotorController(tr *Transport) *MotorController {
	m := &MotorController{tr: tr}
	tr.OnLine(m.handleLine)
	return m
}

// handleLine 收下电机侧的状态行，UID 行留给 RFID 那一路
func (m *MotorController) handleLine(line string) {
	if isUIDLine(line) {
		return
	}
	m.mu.Lock()
	m.lastResponse = line
	m.mu.Unlock()
	logging.Log.Debug("motor line", "line", line)
}

// DrawerNumber 解析抽屉号字符串，不合法返回 false
func DrawerNumber(drawer string) (int, bool) {
	n, err := strconv.Atoi(drawer)
	if err != nil {
		return 0, false
	}
	if _, ok := drawerMotors[n]; !ok {
		return 0, false
	}
	return n, true
}

func parseDrawer(drawer string) (string, error) {
	n, ok := DrawerNumber(drawer)
	if !ok {
		return "", ErrInvalidDrawer
	}
	return drawerMotors[n], nil
}

func (m *MotorController) OpenDrawer(drawer string) error {
	return m.sendDrawer(drawer, "o")
}

func (m *MotorController) CloseDrawer(drawer string) error {
	return m.sendDrawer(drawer, "f")
}

// 校验在前：抽屉号不合法时根本不碰串口
func (m *MotorController) sendDrawer(drawer, op string) error {
	code, err := parseDrawer(drawer)
	if err != nil {
		return err
	}
	if !m.tr.Connected() {
		return ErrNotConnected
	}
	return m.tr.Send(code + op)
}

// StopAll 急停广播，不校验抽屉状态
func (m *MotorController) StopAll() error {
	if !m.tr.Connected() {
		return ErrNotConnected
	}
	return m.tr.Send(stopAllCommand)
}

func (m *MotorController) Status() MotorStatus {
	m.mu.Lock()
	last := m.lastResponse
	m.mu.Unlock()
	return MotorStatus{
		Connected:    m.tr.Connected(),
		Port:         m.tr.PortName(),
		LastResponse: last,
	}
}
