package services

import (
	"fmt"
	"sync"
)

// fakeGateway 可编排的话务网关假实现：按号码脚本化呼叫结果，记录全部原语调用
type fakeGateway struct {
	mu sync.Mutex

	nextSession  int
	callFailures map[string]string // 被叫号码 → 错误串（busy/no_answer/...）
	smsFailures  map[string]bool   // 被叫号码 → 发送失败
	boolFailures map[string]bool   // 原语名 → 返回false

	calls   []fakeGatewayCall
	smses   []fakeGatewaySMS
	hangups []string
}

type fakeGatewayCall struct {
	From      string
	To        string
	SessionID string
}

type fakeGatewaySMS struct {
	From string
	To   string
	Text string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		callFailures: make(map[string]string),
		smsFailures:  make(map[string]bool),
		boolFailures: make(map[string]bool),
	}
}

func (g *fakeGateway) InitiateCall(fromExtension, toNumber string) CallResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if reason, ok := g.callFailures[toNumber]; ok {
		return CallResult{Success: false, Error: reason}
	}
	g.nextSession++
	sessionID := fmt.Sprintf("sess-%d", g.nextSession)
	g.calls = append(g.calls, fakeGatewayCall{From: fromExtension, To: toNumber, SessionID: sessionID})
	return CallResult{Success: true, SessionID: sessionID}
}

func (g *fakeGateway) SendSMS(fromID, toNumber, text string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.smsFailures[toNumber] {
		return false
	}
	g.smses = append(g.smses, fakeGatewaySMS{From: fromID, To: toNumber, Text: text})
	return true
}

func (g *fakeGateway) HoldCall(callID string, hold bool) bool {
	return g.boolResult("hold")
}

func (g *fakeGateway) MuteCall(callID string, mute bool) bool {
	return g.boolResult("mute")
}

func (g *fakeGateway) TransferCall(callID, target string) bool {
	return g.boolResult("transfer")
}

func (g *fakeGateway) HangupCall(callID string) bool {
	g.mu.Lock()
	g.hangups = append(g.hangups, callID)
	g.mu.Unlock()
	return g.boolResult("hangup")
}

func (g *fakeGateway) StartRecording(callID string) bool {
	return g.boolResult("record")
}

func (g *fakeGateway) StopRecording(callID string) bool {
	return g.boolResult("stoprecord")
}

func (g *fakeGateway) boolResult(primitive string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.boolFailures[primitive]
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) smsCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.smses)
}
