package repository

import (
	"testing"

	"carecall-http-service/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockRepository(t *testing.T) (*GormRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &GormRepository{DB: gormDB}, mock
}

func TestGormUpdateAlertConflict(t *testing.T) {
	repo, mock := newMockRepository(t)

	// 版本号不匹配时更新命中0行
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `emergency_alerts`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	alert := &models.EmergencyAlert{ID: 1, Version: 3, Status: models.AlertStatusNew}
	err := repo.UpdateAlert(alert)
	assert.ErrorIs(t, err, ErrConflict)
	// 失败时版本号回滚，调用方重读后还能再试
	assert.Equal(t, 3, alert.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpdateAlertSuccess(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `emergency_alerts`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	alert := &models.EmergencyAlert{ID: 1, Version: 3, Status: models.AlertStatusNew}
	require.NoError(t, repo.UpdateAlert(alert))
	assert.Equal(t, 4, alert.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetDispatcherByUsernameNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT \\* FROM `dispatchers`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	_, err := repo.GetDispatcherByUsername("unbekannt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetCallLogByCallID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT \\* FROM `call_logs`").
		WithArgs("gw-100", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "call_id", "status", "version"}).
			AddRow(7, "gw-100", "ringing", 2))

	callLog, err := repo.GetCallLogByCallID("gw-100")
	require.NoError(t, err)
	assert.Equal(t, uint(7), callLog.ID)
	assert.Equal(t, models.CallLogStatusRinging, callLog.Status)
	assert.Equal(t, 2, callLog.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAdjustDispatcherCallsNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `dispatchers`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := repo.AdjustDispatcherCalls(99, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpdateDispatcherStatusUnchangedRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	// DSN带clientFoundRows=true，重复心跳虽然没有列变化，驱动仍按匹配行数上报1行
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `dispatchers`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateDispatcherStatus(7, models.DispatcherStatusOnline, true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFindDeviceByPhoneOrdersByID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT \\* FROM `care_devices` WHERE phone_number = (.+) ORDER BY id ASC").
		WithArgs("+4922100001", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_number"}).
			AddRow(3, "+4922100001"))

	device, err := repo.FindDeviceByPhone("+4922100001")
	require.NoError(t, err)
	assert.Equal(t, uint(3), device.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
