package services

import (
	"errors"
	"time"

	"carecall-http-service/config"
	"carecall-http-service/models"
	"carecall-http-service/repository"
	"carecall-http-service/utils"
)

// 调度员在线状态在Redis里的保活时长
const dispatcherPresenceTTL = 5 * time.Minute

// CreateDispatcherRequest 创建调度员的参数
type CreateDispatcherRequest struct {
	Name      string                `json:"name" binding:"required"`
	Username  string                `json:"username" binding:"required"`
	Password  string                `json:"password" binding:"required,min=6"`
	Phone     string                `json:"phone"`
	Extension string                `json:"extension"`
	Role      models.DispatcherRole `json:"role"`
}

// InterfaceDispatcherService defines the dispatcher registry interface
type InterfaceDispatcherService interface {
	CreateDispatcher(req *CreateDispatcherRequest) (*models.Dispatcher, error)
	GetDispatcher(id uint) (*models.Dispatcher, error)
	GetDispatcherByUsername(username string) (*models.Dispatcher, error)
	ListDispatchers() ([]models.Dispatcher, error)
	Authenticate(username, password string) (*models.Dispatcher, error)
	MarkOnCall(id uint) error
	ReleaseCall(id uint) error
	Heartbeat(id uint, status models.DispatcherStatus, available bool) (*models.Dispatcher, error)
}

// DispatcherService 调度员登记簿，纯粹的计数与状态簿记
type DispatcherService struct {
	Repo   repository.Repository
	Config *config.Config
	Redis  *RedisService // 可为nil，降级为不做在线镜像
}

// NewDispatcherService 创建一个新的调度员服务
func NewDispatcherService(repo repository.Repository, cfg *config.Config, redis *RedisService) InterfaceDispatcherService {
	return &DispatcherService{
		Repo:   repo,
		Config: cfg,
		Redis:  redis,
	}
}

// 1 CreateDispatcher 创建调度员账号，密码入库前哈希
func (s *DispatcherService) CreateDispatcher(req *CreateDispatcherRequest) (*models.Dispatcher, error) {
	if _, err := s.Repo.GetDispatcherByUsername(req.Username); err == nil {
		return nil, ErrDispatcherExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.DispatcherRoleDispatcher
	}
	dispatcher := &models.Dispatcher{
		Name:      req.Name,
		Username:  req.Username,
		Password:  hashed,
		Phone:     req.Phone,
		Extension: req.Extension,
		Role:      role,
		Status:    models.DispatcherStatusOffline,
		Available: false,
	}
	if err := s.Repo.CreateDispatcher(dispatcher); err != nil {
		return nil, err
	}
	return dispatcher, nil
}

// 2 GetDispatcher 按ID查询调度员
func (s *DispatcherService) GetDispatcher(id uint) (*models.Dispatcher, error) {
	dispatcher, err := s.Repo.GetDispatcher(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDispatcherNotFound
		}
		return nil, err
	}
	return dispatcher, nil
}

// 3 GetDispatcherByUsername 按用户名查询调度员
func (s *DispatcherService) GetDispatcherByUsername(username string) (*models.Dispatcher, error) {
	dispatcher, err := s.Repo.GetDispatcherByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDispatcherNotFound
		}
		return nil, err
	}
	return dispatcher, nil
}

// 4 ListDispatchers 查询全部调度员
func (s *DispatcherService) ListDispatchers() ([]models.Dispatcher, error) {
	return s.Repo.ListDispatchers()
}

// 5 Authenticate 校验用户名和密码
func (s *DispatcherService) Authenticate(username, password string) (*models.Dispatcher, error) {
	dispatcher, err := s.Repo.GetDispatcherByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDispatcherNotFound
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, dispatcher.Password) {
		return nil, ErrDispatcherPassword
	}
	return dispatcher, nil
}

// 6 MarkOnCall 调度员接起呼叫：计数加一，状态置为通话中
func (s *DispatcherService) MarkOnCall(id uint) error {
	if _, err := s.Repo.AdjustDispatcherCalls(id, 1); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDispatcherNotFound
		}
		return err
	}
	if err := s.Repo.UpdateDispatcherStatus(id, models.DispatcherStatusOnCall, true); err != nil {
		return err
	}
	s.mirrorPresence(id, models.DispatcherStatusOnCall)
	return nil
}

// 7 ReleaseCall 调度员挂断一路呼叫：计数减一（下限0），计入累计接听
// 计数归零时状态回到在线
func (s *DispatcherService) ReleaseCall(id uint) error {
	newCount, err := s.Repo.AdjustDispatcherCalls(id, -1)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDispatcherNotFound
		}
		return err
	}
	if err := s.Repo.IncrementTotalCalls(id); err != nil {
		return err
	}
	if newCount == 0 {
		if err := s.Repo.UpdateDispatcherStatus(id, models.DispatcherStatusOnline, true); err != nil {
			return err
		}
		s.mirrorPresence(id, models.DispatcherStatusOnline)
	}
	return nil
}

// 8 Heartbeat 调度员心跳直接上报状态，与通话簿记互不干扰
func (s *DispatcherService) Heartbeat(id uint, status models.DispatcherStatus, available bool) (*models.Dispatcher, error) {
	if err := s.Repo.UpdateDispatcherStatus(id, status, available); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDispatcherNotFound
		}
		return nil, err
	}
	s.mirrorPresence(id, status)
	return s.GetDispatcher(id)
}

// mirrorPresence 把在线状态镜像到Redis，失败只记日志
func (s *DispatcherService) mirrorPresence(id uint, status models.DispatcherStatus) {
	if s.Redis == nil {
		return
	}
	if status == models.DispatcherStatusOffline {
		if err := s.Redis.ClearDispatcherPresence(id); err != nil {
			config.Warning("清除调度员在线状态失败: id=%d, err=%v", id, err)
		}
		return
	}
	if err := s.Redis.CacheDispatcherPresence(id, string(status), dispatcherPresenceTTL); err != nil {
		config.Warning("缓存调度员在线状态失败: id=%d, err=%v", id, err)
	}
}
