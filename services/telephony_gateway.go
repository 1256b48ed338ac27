package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"carecall-http-service/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// CallResult 话务网关呼叫原语的返回结果
type CallResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// InterfaceTelephonyGateway 定义话务网关能力接口
// 具体的SIP/RTP传输由外部PBX连接器承担，这里只暴露抽象原语
type InterfaceTelephonyGateway interface {
	InitiateCall(fromExtension, toNumber string) CallResult
	SendSMS(fromID, toNumber, text string) bool
	HoldCall(callID string, hold bool) bool
	MuteCall(callID string, mute bool) bool
	TransferCall(callID, target string) bool
	HangupCall(callID string) bool
	StartRecording(callID string) bool
	StopRecording(callID string) bool
}

// Webhook事件类型
const (
	WebhookEventNewCall = "newCall"
	WebhookEventAnswer  = "answer"
	WebhookEventHangup  = "hangup"
)

// WebhookEvent 网关异步推送的通话事件
type WebhookEvent struct {
	Event     string `json:"event"` // newCall/answer/hangup
	CallID    string `json:"call_id"`
	Direction string `json:"direction,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Cause     string `json:"cause,omitempty"` // 挂断原因
}

// 网关指令与应答的消息结构
type (
	gatewayCommand struct {
		CommandID string            `json:"command_id"`
		Primitive string            `json:"primitive"`
		Params    map[string]string `json:"params"`
		Timestamp int64             `json:"timestamp"`
	}

	gatewayResponse struct {
		CommandID string `json:"command_id"`
		Success   bool   `json:"success"`
		SessionID string `json:"session_id,omitempty"`
		Error     string `json:"error,omitempty"`
	}
)

// MQTTTelephonyGateway 经MQTT与PBX连接器通信的网关实现
// 指令发布到指令主题，应答按command_id回到应答主题，事件主题上的
// newCall/answer/hangup与HTTP webhook走同一处理路径
type MQTTTelephonyGateway struct {
	Config         *config.Config
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	PublishMutex   sync.Mutex   // 用于保护MQTT消息发布

	// command_id -> 应答通道
	pending *sync.Map

	// 事件回调，由通话会话服务注册
	eventHandler func(WebhookEvent)
	handlerMutex sync.RWMutex
}

// NewMQTTTelephonyGateway 创建一个新的MQTT话务网关
func NewMQTTTelephonyGateway(cfg *config.Config) *MQTTTelephonyGateway {
	gateway := &MQTTTelephonyGateway{
		Config:      cfg,
		IsConnected: false,
		pending:     &sync.Map{},
	}

	// 设置MQTT客户端
	gateway.setupMQTTClient()

	return gateway
}

// setupMQTTClient 设置MQTT客户端
func (g *MQTTTelephonyGateway) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(g.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s-%d", g.Config.MQTTClientID, uuid.New().String()[:8], time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	// 设置QoS等级为1，确保消息至少传递一次
	opts.SetDefaultPublishHandler(func(client mqtt.Client, msg mqtt.Message) {
		log.Printf("[MQTT] 收到未处理的消息: topic=%s", msg.Topic())
	})

	// 添加用户名和密码
	if g.Config.MQTTUsername != "" {
		opts.SetUsername(g.Config.MQTTUsername)
		opts.SetPassword(g.Config.MQTTPassword)
	}

	// 添加TLS配置，支持SSL连接
	if strings.HasPrefix(g.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(g.Config.MQTTBrokerURL, "tls://") || g.Config.MQTTSSLEnabled {
		log.Println("[MQTT] 使用TLS连接")
		tlsConfig := &tls.Config{
			InsecureSkipVerify: true, // 默认跳过验证，如有CA证书则使用
		}
		opts.SetTLSConfig(tlsConfig)
	}

	// 设置连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] 连接丢失: %v", err)
		g.connectedMutex.Lock()
		g.IsConnected = false
		g.connectedMutex.Unlock()
	})

	// 设置连接建立回调
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("[MQTT] 成功连接到", g.Config.MQTTBrokerURL)
		g.connectedMutex.Lock()
		g.IsConnected = true
		g.connectedMutex.Unlock()

		// 订阅应答与事件主题
		if err := g.subscribeTopics(); err != nil {
			log.Printf("[MQTT] 订阅主题失败: %v", err)
		}
	})

	// 设置重连回调
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		log.Println("[MQTT] 正在尝试重连...")
	})

	// 创建客户端
	g.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT服务器，带有重试机制
func (g *MQTTTelephonyGateway) Connect() error {
	log.Printf("[MQTT] 正在连接到 %s...", g.Config.MQTTBrokerURL)

	g.connectedMutex.RLock()
	isConnected := g.IsConnected && g.Client.IsConnected()
	g.connectedMutex.RUnlock()

	if isConnected {
		return nil
	}

	// 添加最大重试次数和指数退避策略
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		token := g.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			g.connectedMutex.Lock()
			g.IsConnected = true
			g.connectedMutex.Unlock()
			log.Printf("[MQTT] 成功连接到 %s", g.Config.MQTTBrokerURL)
			return nil
		}

		err = token.Error()
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s, 8s, 16s
		log.Printf("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (g *MQTTTelephonyGateway) Disconnect() {
	if g.Client != nil && g.Client.IsConnected() {
		g.Client.Disconnect(250)
	}
}

// SetEventHandler 注册网关事件回调（由通话会话服务调用）
func (g *MQTTTelephonyGateway) SetEventHandler(handler func(WebhookEvent)) {
	g.handlerMutex.Lock()
	defer g.handlerMutex.Unlock()
	g.eventHandler = handler
}

// subscribeTopics 订阅应答与事件主题
func (g *MQTTTelephonyGateway) subscribeTopics() error {
	// 使用QoS 1确保消息至少被传递一次
	qos := byte(1)

	if token := g.Client.Subscribe(g.Config.GatewayRspTopic, qos, g.handleResponse); token.Wait() && token.Error() != nil {
		return fmt.Errorf("订阅主题失败 [%s]: %v", g.Config.GatewayRspTopic, token.Error())
	}
	log.Printf("[MQTT] 已订阅主题: %s", g.Config.GatewayRspTopic)

	if token := g.Client.Subscribe(g.Config.GatewayEvtTopic, qos, g.handleEvent); token.Wait() && token.Error() != nil {
		return fmt.Errorf("订阅主题失败 [%s]: %v", g.Config.GatewayEvtTopic, token.Error())
	}
	log.Printf("[MQTT] 已订阅主题: %s", g.Config.GatewayEvtTopic)

	return nil
}

// handleResponse 处理指令应答，按command_id唤醒等待的调用
func (g *MQTTTelephonyGateway) handleResponse(client mqtt.Client, msg mqtt.Message) {
	var response gatewayResponse
	if err := json.Unmarshal(msg.Payload(), &response); err != nil {
		log.Printf("[MQTT] 解析网关应答失败: %v", err)
		return
	}

	value, ok := g.pending.Load(response.CommandID)
	if !ok {
		// 超时后到达的应答，直接丢弃
		log.Printf("[MQTT] 收到无人等待的应答: command_id=%s", response.CommandID)
		return
	}

	responseChan := value.(chan gatewayResponse)
	select {
	case responseChan <- response:
	default:
	}
}

// handleEvent 处理网关事件（newCall/answer/hangup）
func (g *MQTTTelephonyGateway) handleEvent(client mqtt.Client, msg mqtt.Message) {
	var event WebhookEvent
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		log.Printf("[MQTT] 解析网关事件失败: %v", err)
		return
	}

	g.handlerMutex.RLock()
	handler := g.eventHandler
	g.handlerMutex.RUnlock()

	if handler == nil {
		log.Printf("[MQTT] 收到网关事件但没有注册处理器: event=%s, call_id=%s", event.Event, event.CallID)
		return
	}
	handler(event)
}

// sendCommand 发布一条网关指令并在超时内等待应答
func (g *MQTTTelephonyGateway) sendCommand(primitive string, params map[string]string) (gatewayResponse, error) {
	commandID := uuid.New().String()
	command := gatewayCommand{
		CommandID: commandID,
		Primitive: primitive,
		Params:    params,
		Timestamp: time.Now().UnixMilli(),
	}

	responseChan := make(chan gatewayResponse, 1)
	g.pending.Store(commandID, responseChan)
	defer g.pending.Delete(commandID)

	payload, err := json.Marshal(command)
	if err != nil {
		return gatewayResponse{}, fmt.Errorf("序列化网关指令失败: %w", err)
	}

	g.PublishMutex.Lock()
	token := g.Client.Publish(g.Config.GatewayCmdTopic, 1, false, payload)
	g.PublishMutex.Unlock()

	if !token.WaitTimeout(g.Config.GatewayTimeout) || token.Error() != nil {
		return gatewayResponse{}, fmt.Errorf("发布网关指令失败 [%s]: %v", primitive, token.Error())
	}

	select {
	case response := <-responseChan:
		return response, nil
	case <-time.After(g.Config.GatewayTimeout):
		return gatewayResponse{}, fmt.Errorf("等待网关应答超时 [%s]", primitive)
	}
}

// InitiateCall 发起呼叫
func (g *MQTTTelephonyGateway) InitiateCall(fromExtension, toNumber string) CallResult {
	response, err := g.sendCommand("initiateCall", map[string]string{
		"from": fromExtension,
		"to":   toNumber,
	})
	if err != nil {
		log.Printf("[Gateway] 发起呼叫失败: %v", err)
		return CallResult{Success: false, Error: err.Error()}
	}
	return CallResult{Success: response.Success, SessionID: response.SessionID, Error: response.Error}
}

// SendSMS 发送短信
func (g *MQTTTelephonyGateway) SendSMS(fromID, toNumber, text string) bool {
	response, err := g.sendCommand("sendSms", map[string]string{
		"from": fromID,
		"to":   toNumber,
		"text": text,
	})
	if err != nil {
		log.Printf("[Gateway] 发送短信失败: %v", err)
		return false
	}
	return response.Success
}

// HoldCall 保持/恢复通话
func (g *MQTTTelephonyGateway) HoldCall(callID string, hold bool) bool {
	return g.boolCommand("holdCall", map[string]string{
		"call_id": callID,
		"hold":    fmt.Sprintf("%t", hold),
	})
}

// MuteCall 静音/取消静音
func (g *MQTTTelephonyGateway) MuteCall(callID string, mute bool) bool {
	return g.boolCommand("muteCall", map[string]string{
		"call_id": callID,
		"mute":    fmt.Sprintf("%t", mute),
	})
}

// TransferCall 转接通话
func (g *MQTTTelephonyGateway) TransferCall(callID, target string) bool {
	return g.boolCommand("transferCall", map[string]string{
		"call_id": callID,
		"target":  target,
	})
}

// HangupCall 挂断通话
func (g *MQTTTelephonyGateway) HangupCall(callID string) bool {
	return g.boolCommand("hangupCall", map[string]string{
		"call_id": callID,
	})
}

// StartRecording 开始录音
func (g *MQTTTelephonyGateway) StartRecording(callID string) bool {
	return g.boolCommand("startRecording", map[string]string{
		"call_id": callID,
	})
}

// StopRecording 停止录音
func (g *MQTTTelephonyGateway) StopRecording(callID string) bool {
	return g.boolCommand("stopRecording", map[string]string{
		"call_id": callID,
	})
}

// boolCommand 执行只关心成败的网关原语
func (g *MQTTTelephonyGateway) boolCommand(primitive string, params map[string]string) bool {
	response, err := g.sendCommand(primitive, params)
	if err != nil {
		log.Printf("[Gateway] %s 失败: %v", primitive, err)
		return false
	}
	return response.Success
}
