//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=timeclock password=timeclock_password dbname=timeclock_test sslmode=disable"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移脚本建表（包含部分唯一索引）
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// newOwner 生成独立的测试用户并注册清理函数
func newOwner(t *testing.T) string {
	t.Helper()
	owner := "it-" + uuid.NewString()
	t.Cleanup(func() {
		testDB.Where("auth_id = ?", owner).Delete(&model.Punch{})
	})
	return owner
}

func newPunch(owner string, in time.Time, out *time.Time, ht model.HourType) *model.Punch {
	o := owner
	p := &model.Punch{
		PunchID:  uuid.NewString(),
		PunchIn:  in,
		PunchOut: out,
		HourType: ht,
		AuthID:   &o,
	}
	p.Touch(time.Now())
	return p
}

func ptr(t time.Time) *time.Time { return &t }

// ═══════════════════════════════════════════════════════════
// Test: Open Punch Uniqueness
// ═══════════════════════════════════════════════════════════

func TestOpenPunch_UniquePerOwner(t *testing.T) {
	owner := newOwner(t)
	ctx := context.Background()
	now := time.Now()

	if err := testDB.WithContext(ctx).Create(newPunch(owner, now, nil, model.HourTypeRegular)).Error; err != nil {
		t.Fatalf("创建第一条未结束打卡失败: %v", err)
	}
	err := testDB.WithContext(ctx).Create(newPunch(owner, now.Add(time.Minute), nil, model.HourTypeRegular)).Error
	if err == nil {
		t.Fatal("期望第二条未结束打卡被唯一索引拒绝")
	}
}

func TestCloseOpenAndCreate(t *testing.T) {
	owner := newOwner(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	first := time.Now().Add(-time.Hour).Truncate(time.Second)

	if _, err := repo.Punch.CloseOpenAndCreate(ctx, owner, first, newPunch(owner, first, nil, model.HourTypeRegular)); err != nil {
		t.Fatalf("首次打卡失败: %v", err)
	}

	second := first.Add(30 * time.Minute)
	closed, err := repo.Punch.CloseOpenAndCreate(ctx, owner, second, newPunch(owner, second, nil, model.HourTypeTechLead))
	if err != nil {
		t.Fatalf("再次打卡失败: %v", err)
	}
	if closed != 1 {
		t.Errorf("期望关闭 1 条，实际: %d", closed)
	}

	open, err := repo.Punch.GetOpenByAuthID(ctx, owner)
	if err != nil {
		t.Fatalf("查询未结束打卡失败: %v", err)
	}
	if open.HourType != model.HourTypeTechLead {
		t.Errorf("期望未结束打卡为 TechLead，实际: %s", open.HourType)
	}

	last, err := repo.Punch.GetLastByAuthID(ctx, owner)
	if err != nil {
		t.Fatalf("查询最后一次打卡失败: %v", err)
	}
	if last.PunchID != open.PunchID {
		t.Errorf("最后一次打卡应为未结束的那条")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Range Query
// ═══════════════════════════════════════════════════════════

func TestListClosedInRange_DayBoundaries(t *testing.T) {
	owner := newOwner(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	day := func(d, h int) time.Time { return time.Date(2024, 1, d, h, 0, 0, 0, time.Local) }
	rows := []*model.Punch{
		newPunch(owner, day(1, 9), ptr(day(1, 17)), model.HourTypeRegular),   // 范围内
		newPunch(owner, day(2, 22), ptr(day(3, 2)), model.HourTypeRegular),   // 跨出 end 日期
		newPunch(owner, day(2, 9), ptr(day(2, 12)), model.HourTypeTechLead),  // 范围内
		newPunch(owner, day(2, 13), nil, model.HourTypeRegular),              // 未结束
		newPunch(owner, day(31, 9), ptr(day(31, 10)), model.HourTypeRegular),   // 范围外
	}
	for _, p := range rows {
		if err := testDB.WithContext(ctx).Create(p).Error; err != nil {
			t.Fatalf("写入测试数据失败: %v", err)
		}
	}

	from := day(1, 0)
	until := day(3, 0)
	got, err := repo.Punch.ListClosedInRange(ctx, owner, from, until)
	if err != nil {
		t.Fatalf("ListClosedInRange 失败: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 条，实际: %d", len(got))
	}
	if !got[0].PunchIn.Before(got[1].PunchIn) {
		t.Error("结果应按 PunchIn 升序")
	}
}

func TestPunchTimes_RoundTripAsLocal(t *testing.T) {
	owner := newOwner(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	in := time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)
	p := newPunch(owner, in, ptr(in.Add(90*time.Minute)), model.HourTypeRegular)
	if err := testDB.WithContext(ctx).Create(p).Error; err != nil {
		t.Fatalf("写入测试数据失败: %v", err)
	}

	got, err := repo.Punch.GetByID(ctx, p.PunchID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if !got.PunchIn.Equal(in) || !got.PunchOut.Equal(in.Add(90*time.Minute)) {
		t.Errorf("读回的时间点不一致: %v - %v", got.PunchIn, got.PunchOut)
	}
	if got.PunchIn.Location() != time.Local {
		t.Errorf("期望按服务器本地时区读回，实际: %v", got.PunchIn.Location())
	}
	if h, m, _ := got.PunchIn.Clock(); h != 14 || m != 30 {
		t.Errorf("期望本地钟点 14:30，实际: %02d:%02d", h, m)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Batch Create / Delete
// ═══════════════════════════════════════════════════════════

func TestCreateBatch_AndDelete(t *testing.T) {
	owner := newOwner(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.Local)

	batch := make([]model.Punch, 0, 25)
	for i := 0; i < 25; i++ {
		in := base.AddDate(0, 0, i)
		batch = append(batch, *newPunch(owner, in, ptr(in.Add(8*time.Hour)), model.HourTypeRegular))
	}
	if err := repo.Punch.CreateBatch(ctx, batch, 10); err != nil {
		t.Fatalf("CreateBatch 失败: %v", err)
	}

	var count int64
	testDB.Model(&model.Punch{}).Where("auth_id = ?", owner).Count(&count)
	if count != 25 {
		t.Errorf("期望 25 条，实际: %d", count)
	}

	if err := repo.Punch.Delete(ctx, batch[0].PunchID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := repo.Punch.GetByID(ctx, batch[0].PunchID); err != gorm.ErrRecordNotFound {
		t.Errorf("删除后期望 ErrRecordNotFound，实际: %v", err)
	}
}
