package services

import (
	"carecall-http-service/config"
	"carecall-http-service/models"
	"carecall-http-service/repository"
)

// testEnv 服务层测试的公共装配：内存存储 + 可编排的假网关
type testEnv struct {
	repo    *repository.MemoryRepository
	cfg     *config.Config
	gateway *fakeGateway

	alerts       InterfaceAlertService
	notification InterfaceNotificationService
	conference   InterfaceConferenceService
	calls        InterfaceCallSessionService
	dispatchers  InterfaceDispatcherService
}

func newTestEnv() *testEnv {
	repo := repository.NewMemoryRepository()
	cfg := &config.Config{
		EmergencyNumber:   "112",
		DispatchExtension: "100",
		SMSSenderID:       "Hausnotruf",
		JWTSecretKey:      "test-secret",
	}
	gateway := newFakeGateway()

	alerts := NewAlertService(repo, cfg, nil)
	dispatchers := NewDispatcherService(repo, cfg, nil)

	return &testEnv{
		repo:         repo,
		cfg:          cfg,
		gateway:      gateway,
		alerts:       alerts,
		notification: NewNotificationService(repo, cfg, gateway, alerts),
		conference:   NewConferenceService(repo, cfg, gateway, alerts),
		calls:        NewCallSessionService(repo, cfg, gateway, alerts, dispatchers),
		dispatchers:  dispatchers,
	}
}

// seedClient 写入一个带地址的客户档案
func (e *testEnv) seedClient(id uint, name string) *models.CareClient {
	client := &models.CareClient{
		ID:          id,
		Name:        name,
		Street:      "Lindenstraße",
		HouseNumber: "12",
		PostalCode:  "50674",
		City:        "Köln",
	}
	e.repo.AddClient(client)
	return client
}

// seedDispatcher 写入一个在线调度员
func (e *testEnv) seedDispatcher(id uint, name string) *models.Dispatcher {
	dispatcher := &models.Dispatcher{
		ID:        id,
		Name:      name,
		Username:  name,
		Password:  "irrelevant",
		Extension: "101",
		Role:      models.DispatcherRoleDispatcher,
		Status:    models.DispatcherStatusOnline,
		Available: true,
	}
	_ = e.repo.CreateDispatcher(dispatcher)
	return dispatcher
}

// raiseTestAlert 为客户触发一条测试警报
func (e *testEnv) raiseTestAlert(clientID uint) *models.EmergencyAlert {
	alert, err := e.alerts.RaiseAlert(&RaiseAlertRequest{
		AlertType: models.AlertTypeFallDetection,
		Priority:  models.AlertPriorityHigh,
		ClientID:  &clientID,
	})
	if err != nil {
		panic(err)
	}
	return alert
}
