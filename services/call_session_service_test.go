package services

import (
	"testing"

	"carecall-http-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateCallGatewayFailureLeavesNoRecord(t *testing.T) {
	env := newTestEnv()
	env.seedDispatcher(1, "Maria Weber")
	env.gateway.callFailures["+4922111111"] = "busy"
	dispatcherID := uint(1)

	_, err := env.calls.InitiateCall(&InitiateCallRequest{
		ToNumber:     "+4922111111",
		DispatcherID: &dispatcherID,
	})
	assert.ErrorIs(t, err, ErrGatewayFailure)

	_, total, listErr := env.calls.ListCalls(1, 20)
	require.NoError(t, listErr)
	assert.Equal(t, int64(0), total)

	// 呼叫没建立，簿记也不发生
	dispatcher, err := env.dispatchers.GetDispatcher(1)
	require.NoError(t, err)
	assert.Equal(t, 0, dispatcher.CurrentCallCount)
}

func TestInitiateCallUsesDispatcherExtension(t *testing.T) {
	env := newTestEnv()
	env.seedDispatcher(1, "Maria Weber") // 分机号101
	dispatcherID := uint(1)

	callLog, err := env.calls.InitiateCall(&InitiateCallRequest{
		ToNumber:     "+4922111111",
		DispatcherID: &dispatcherID,
	})
	require.NoError(t, err)
	assert.Equal(t, "101", callLog.FromNumber)
	assert.Equal(t, models.CallDirectionOutbound, callLog.Direction)
	assert.Equal(t, models.CallLogStatusRinging, callLog.Status)

	dispatcher, err := env.dispatchers.GetDispatcher(1)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatcher.CurrentCallCount)
	assert.Equal(t, models.DispatcherStatusOnCall, dispatcher.Status)
}

func TestWebhookNewCallInboundRaisesAlert(t *testing.T) {
	env := newTestEnv()
	env.seedClient(1, "Frau Schmidt")
	clientID := uint(1)
	env.repo.AddDevice(&models.CareDevice{
		ID: 1, SerialNumber: "HNR-001", PhoneNumber: "+4922198765", ClientID: &clientID,
	})

	callLog, err := env.calls.HandleWebhookEvent(&WebhookEvent{
		Event:  WebhookEventNewCall,
		CallID: "gw-100",
		From:   "+4922198765",
		To:     "100",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CallDirectionInbound, callLog.Direction)
	require.NotNil(t, callLog.ClientID)
	assert.Equal(t, uint(1), *callLog.ClientID)
	require.NotNil(t, callLog.AlertID)

	alert, err := env.alerts.GetAlert(*callLog.AlertID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertTypeIncomingCall, alert.AlertType)
	assert.Equal(t, "+4922198765", alert.CallerNumber)

	// 重复投递原样返回，不重复建档
	again, err := env.calls.HandleWebhookEvent(&WebhookEvent{
		Event:  WebhookEventNewCall,
		CallID: "gw-100",
		From:   "+4922198765",
		To:     "100",
	})
	require.NoError(t, err)
	assert.Equal(t, callLog.ID, again.ID)
	_, total, err := env.calls.ListCalls(1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestWebhookAnswerIdempotent(t *testing.T) {
	env := newTestEnv()
	_, err := env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventNewCall, CallID: "gw-200", From: "+4900000000"})
	require.NoError(t, err)

	first, err := env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventAnswer, CallID: "gw-200"})
	require.NoError(t, err)
	assert.Equal(t, models.CallLogStatusConnected, first.Status)
	require.NotNil(t, first.ConnectTime)
	connectTime := *first.ConnectTime

	second, err := env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventAnswer, CallID: "gw-200"})
	require.NoError(t, err)
	assert.Equal(t, connectTime, *second.ConnectTime)
}

func TestWebhookHangupNeverConnectedIsMissed(t *testing.T) {
	env := newTestEnv()
	_, err := env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventNewCall, CallID: "gw-300", From: "+4900000000"})
	require.NoError(t, err)

	ended, err := env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventHangup, CallID: "gw-300"})
	require.NoError(t, err)
	assert.Equal(t, models.CallLogStatusMissed, ended.Status)
	assert.Equal(t, 0, ended.Duration)
	assert.Equal(t, "remote_hangup", ended.EndReason)
	require.NotNil(t, ended.EndTime)
}

func TestDoubleHangupReleasesDispatcherOnce(t *testing.T) {
	env := newTestEnv()
	env.seedDispatcher(1, "Maria Weber")
	dispatcherID := uint(1)

	callLog, err := env.calls.InitiateCall(&InitiateCallRequest{
		ToNumber:     "+4922111111",
		DispatcherID: &dispatcherID,
	})
	require.NoError(t, err)

	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventAnswer, CallID: callLog.CallID})
	require.NoError(t, err)

	// 调度员挂断与网关挂断事件几乎同时到达
	_, err = env.calls.PerformAction(callLog.ID, &dispatcherID, &CallActionRequest{Action: CallActionHangup})
	require.NoError(t, err)
	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventHangup, CallID: callLog.CallID})
	require.NoError(t, err)

	// 簿记只由终态迁移的赢家执行一次
	dispatcher, err := env.dispatchers.GetDispatcher(1)
	require.NoError(t, err)
	assert.Equal(t, 0, dispatcher.CurrentCallCount)
	assert.Equal(t, 1, dispatcher.TotalCallsHandled)
	assert.Equal(t, models.DispatcherStatusOnline, dispatcher.Status)

	final, err := env.calls.GetCall(callLog.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallLogStatusEnded, final.Status)
	assert.Equal(t, "dispatcher_hangup", final.EndReason)
}

func TestPerformActionGatewayFailureNoLocalMutation(t *testing.T) {
	env := newTestEnv()
	callLog, err := env.calls.InitiateCall(&InitiateCallRequest{ToNumber: "+4922111111"})
	require.NoError(t, err)
	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventAnswer, CallID: callLog.CallID})
	require.NoError(t, err)

	env.gateway.boolFailures["hold"] = true
	_, err = env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionHold})
	assert.ErrorIs(t, err, ErrGatewayFailure)

	unchanged, err := env.calls.GetCall(callLog.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallLogStatusConnected, unchanged.Status)
}

func TestPerformActionHoldResumeMuteTransfer(t *testing.T) {
	env := newTestEnv()
	callLog, err := env.calls.InitiateCall(&InitiateCallRequest{ToNumber: "+4922111111"})
	require.NoError(t, err)
	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventAnswer, CallID: callLog.CallID})
	require.NoError(t, err)

	held, err := env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionHold})
	require.NoError(t, err)
	assert.Equal(t, models.CallLogStatusOnHold, held.Status)

	resumed, err := env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionResume})
	require.NoError(t, err)
	assert.Equal(t, models.CallLogStatusConnected, resumed.Status)

	muted, err := env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionMute})
	require.NoError(t, err)
	assert.True(t, muted.Muted)

	unmuted, err := env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionUnmute})
	require.NoError(t, err)
	assert.False(t, unmuted.Muted)

	// 转接没有目标号码按非法动作处理
	_, err = env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionTransfer})
	assert.ErrorIs(t, err, ErrUnknownCallAction)

	transferred, err := env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionTransfer, Target: "112"})
	require.NoError(t, err)
	assert.True(t, transferred.Escalated)
}

func TestPerformActionRecordingSegments(t *testing.T) {
	env := newTestEnv()
	callLog, err := env.calls.InitiateCall(&InitiateCallRequest{ToNumber: "+4922111111"})
	require.NoError(t, err)
	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventAnswer, CallID: callLog.CallID})
	require.NoError(t, err)

	recording, err := env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionRecord})
	require.NoError(t, err)
	assert.True(t, recording.Recording)
	require.NotNil(t, recording.RecordingStartTime)
	startTime := *recording.RecordingStartTime

	// 重复下发录音不重置起点
	again, err := env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionRecord})
	require.NoError(t, err)
	assert.Equal(t, startTime, *again.RecordingStartTime)

	stopped, err := env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionStopRecord})
	require.NoError(t, err)
	assert.False(t, stopped.Recording)
	assert.Nil(t, stopped.RecordingStartTime)
	assert.GreaterOrEqual(t, stopped.RecordingDuration, 0)
}

func TestPerformActionOnEndedCallRejected(t *testing.T) {
	env := newTestEnv()
	callLog, err := env.calls.InitiateCall(&InitiateCallRequest{ToNumber: "+4922111111"})
	require.NoError(t, err)
	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventHangup, CallID: callLog.CallID})
	require.NoError(t, err)

	_, err = env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: CallActionHold})
	assert.ErrorIs(t, err, ErrCallEnded)

	_, err = env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: "whistle"})
	assert.ErrorIs(t, err, ErrCallEnded)
}

func TestPerformActionUnknown(t *testing.T) {
	env := newTestEnv()
	callLog, err := env.calls.InitiateCall(&InitiateCallRequest{ToNumber: "+4922111111"})
	require.NoError(t, err)

	_, err = env.calls.PerformAction(callLog.ID, nil, &CallActionRequest{Action: "whistle"})
	assert.ErrorIs(t, err, ErrUnknownCallAction)
}

func TestGetStatisticsAggregates(t *testing.T) {
	env := newTestEnv()
	first, err := env.calls.InitiateCall(&InitiateCallRequest{ToNumber: "+4922111111"})
	require.NoError(t, err)
	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventAnswer, CallID: first.CallID})
	require.NoError(t, err)
	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventHangup, CallID: first.CallID})
	require.NoError(t, err)

	second, err := env.calls.InitiateCall(&InitiateCallRequest{ToNumber: "+4922122222"})
	require.NoError(t, err)
	_, err = env.calls.HandleWebhookEvent(&WebhookEvent{Event: WebhookEventHangup, CallID: second.CallID})
	require.NoError(t, err)

	stats, err := env.calls.GetStatistics()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCalls)
	assert.Equal(t, int64(1), stats.MissedCalls)
}
