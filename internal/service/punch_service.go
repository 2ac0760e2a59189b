package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/metrics"
	"timeclock/pkg/timeutil"
)

// ── 打卡模块业务错误 ──

var (
	ErrPunchNotFound   = errors.New("打卡记录不存在")
	ErrPunchNotOwner   = errors.New("无权操作该打卡记录")
	ErrPunchValidation = errors.New("打卡数据校验失败")

	ErrPunchInvalidRange = fmt.Errorf("%w: PunchOut 必须晚于 PunchIn", ErrPunchValidation)
	ErrPunchInvalidType  = fmt.Errorf("%w: 未知的打卡类型", ErrPunchValidation)
	ErrPunchInvalidHour  = fmt.Errorf("%w: 未知的工时类别", ErrPunchValidation)
)

const importBatchSize = 500

// PunchService 打卡业务接口
//
// 所有操作都以 authID 限定范围，不同用户的数据互不可见。
type PunchService interface {
	InsertPunch(ctx context.Context, info *dto.PunchInfo, authID string) error
	GetPunchRecords(ctx context.Context, start, end time.Time, authID string) ([]dto.PunchRecord, error)
	GetLastPunch(ctx context.Context, authID string) (*dto.PunchRecord, error)
	UpdatePunch(ctx context.Context, req *dto.PunchUpdateDto, authID string) (*dto.PunchRecord, error)
	DeletePunch(ctx context.Context, punchID, authID string) error
	BulkInsertPunches(ctx context.Context, punches []model.Punch, authID string) (int, error)
	HasOpenPunch(ctx context.Context, authID string) (bool, error)
	Summarize(ctx context.Context, start, end time.Time, authID string) (*dto.PunchSummary, error)
}

type punchService struct {
	repo   *repository.Repository
	locker OwnerLocker
	logger *zap.Logger
	now    func() time.Time
}

// NewPunchService 创建 PunchService 实例
func NewPunchService(repo *repository.Repository, locker OwnerLocker, logger *zap.Logger) PunchService {
	return &punchService{
		repo:   repo,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── InsertPunch ──────────────────────

// InsertPunch 上班 / 下班打卡，时间取服务器当前时间
//
//   - PunchOut：结束未结束的打卡；没有则不做任何操作
//   - PunchIn：先结束未结束的打卡，再新建一条未结束的打卡
func (s *punchService) InsertPunch(ctx context.Context, info *dto.PunchInfo, authID string) error {
	if info.PunchType != model.PunchTypeIn && info.PunchType != model.PunchTypeOut {
		return ErrPunchInvalidType
	}
	hourType := model.HourTypeRegular
	if info.HourType != "" {
		ht, ok := model.ParseHourType(string(info.HourType))
		if !ok {
			return ErrPunchInvalidHour
		}
		hourType = ht
	}

	unlock, err := s.locker.Lock(ctx, authID)
	if err != nil {
		s.logger.Warn("获取打卡锁失败", zap.String("auth_id", authID), zap.Error(err))
		return err
	}
	defer unlock()

	now := s.now()

	var next *model.Punch
	if info.PunchType == model.PunchTypeIn {
		owner := authID
		next = &model.Punch{
			PunchID:         uuid.NewString(),
			PunchIn:         now,
			HourType:        hourType,
			AuthID:          &owner,
			WorkDescription: info.WorkDescription,
		}
		next.Touch(now)
	}

	closed, err := s.repo.Punch.CloseOpenAndCreate(ctx, authID, now, next)
	if err != nil {
		s.logger.Error("打卡失败",
			zap.String("auth_id", authID),
			zap.String("punch_type", string(info.PunchType)),
			zap.Error(err),
		)
		return err
	}

	metrics.PunchActions.WithLabelValues(string(info.PunchType)).Inc()
	s.logger.Debug("打卡完成",
		zap.String("auth_id", authID),
		zap.String("punch_type", string(info.PunchType)),
		zap.Int64("closed", closed),
	)
	return nil
}

// ────────────────────── GetPunchRecords ──────────────────────

// GetPunchRecords 查询日期范围内已结束的打卡（只比较日期部分，两端包含）
func (s *punchService) GetPunchRecords(ctx context.Context, start, end time.Time, authID string) ([]dto.PunchRecord, error) {
	from, until := timeutil.DayRange(start, end)

	punches, err := s.repo.Punch.ListClosedInRange(ctx, authID, from, until)
	if err != nil {
		s.logger.Error("查询打卡记录失败", zap.String("auth_id", authID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.PunchRecord, 0, len(punches))
	for i := range punches {
		result = append(result, dto.NewPunchRecord(&punches[i]))
	}
	return result, nil
}

// ────────────────────── GetLastPunch ──────────────────────

// GetLastPunch 最近一次打卡；用户没有任何记录时返回 nil, nil
func (s *punchService) GetLastPunch(ctx context.Context, authID string) (*dto.PunchRecord, error) {
	punch, err := s.repo.Punch.GetLastByAuthID(ctx, authID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询最后一次打卡失败", zap.String("auth_id", authID), zap.Error(err))
		return nil, err
	}

	record := dto.NewPunchRecord(punch)
	return &record, nil
}

// ────────────────────── UpdatePunch ──────────────────────

func (s *punchService) UpdatePunch(ctx context.Context, req *dto.PunchUpdateDto, authID string) (*dto.PunchRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrPunchInvalidRange
	}
	hourType, ok := model.ParseHourType(string(req.ResolvedHourType()))
	if !ok {
		return nil, ErrPunchInvalidHour
	}

	punch, err := s.loadOwned(ctx, req.PunchID, authID)
	if err != nil {
		return nil, err
	}

	punchOut := req.PunchOut
	punch.PunchIn = req.PunchIn
	punch.PunchOut = &punchOut
	punch.HourType = hourType
	punch.UpdatedAt = s.now()

	if err := s.repo.Punch.Update(ctx, punch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPunchNotFound
		}
		s.logger.Error("更新打卡记录失败", zap.String("punch_id", req.PunchID), zap.Error(err))
		return nil, err
	}

	record := dto.NewPunchRecord(punch)
	return &record, nil
}

// ────────────────────── DeletePunch ──────────────────────

func (s *punchService) DeletePunch(ctx context.Context, punchID, authID string) error {
	if _, err := s.loadOwned(ctx, punchID, authID); err != nil {
		return err
	}

	if err := s.repo.Punch.Delete(ctx, punchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPunchNotFound
		}
		s.logger.Error("删除打卡记录失败", zap.String("punch_id", punchID), zap.Error(err))
		return err
	}
	return nil
}

// loadOwned 读取记录并校验归属；他人的记录内容不会离开本函数
func (s *punchService) loadOwned(ctx context.Context, punchID, authID string) (*model.Punch, error) {
	punch, err := s.repo.Punch.GetByID(ctx, punchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPunchNotFound
		}
		s.logger.Error("查询打卡记录失败", zap.String("punch_id", punchID), zap.Error(err))
		return nil, err
	}
	if !punch.OwnedBy(authID) {
		s.logger.Warn("拒绝操作他人打卡记录",
			zap.String("punch_id", punchID),
			zap.String("auth_id", authID),
		)
		return nil, ErrPunchNotOwner
	}
	return punch, nil
}

// ────────────────────── BulkInsertPunches ──────────────────────

// BulkInsertPunches 批量写入，返回实际写入条数
//
// 只写入归属 authID 的记录。持锁期间再次检查未结束打卡：
// 用户已有未结束打卡时丢弃所有未结束的导入行，否则至多保留一条。
func (s *punchService) BulkInsertPunches(ctx context.Context, punches []model.Punch, authID string) (int, error) {
	if len(punches) == 0 {
		return 0, nil
	}

	unlock, err := s.locker.Lock(ctx, authID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	openExists, err := s.HasOpenPunch(ctx, authID)
	if err != nil {
		return 0, err
	}

	batch := make([]model.Punch, 0, len(punches))
	dropped := 0
	for _, p := range punches {
		if !p.OwnedBy(authID) {
			dropped++
			continue
		}
		if p.IsOpen() {
			if openExists {
				dropped++
				continue
			}
			openExists = true
		}
		batch = append(batch, p)
	}

	if err := s.repo.Punch.CreateBatch(ctx, batch, importBatchSize); err != nil {
		s.logger.Error("批量写入打卡记录失败",
			zap.String("auth_id", authID),
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		return 0, err
	}

	if dropped > 0 {
		s.logger.Warn("批量写入时丢弃了部分记录", zap.String("auth_id", authID), zap.Int("dropped", dropped))
	}
	return len(batch), nil
}

// ────────────────────── HasOpenPunch ──────────────────────

func (s *punchService) HasOpenPunch(ctx context.Context, authID string) (bool, error) {
	_, err := s.repo.Punch.GetOpenByAuthID(ctx, authID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		s.logger.Error("查询未结束打卡失败", zap.String("auth_id", authID), zap.Error(err))
		return false, err
	}
	return true, nil
}

// ────────────────────── Summarize ──────────────────────

func (s *punchService) Summarize(ctx context.Context, start, end time.Time, authID string) (*dto.PunchSummary, error) {
	records, err := s.GetPunchRecords(ctx, start, end, authID)
	if err != nil {
		return nil, err
	}

	summary := SummarizePunches(records)
	summary.Start = timeutil.StartOfDay(start).Format(time.DateOnly)
	summary.End = timeutil.StartOfDay(end).Format(time.DateOnly)
	return &summary, nil
}
