package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"shoptrend-go/internal/service"
	"shoptrend-go/pkg/logger"
	"shoptrend-go/pkg/trends"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// TimestampLayout is ISO-8601 with milliseconds and an explicit offset.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Controller struct {
	trends   service.TrendService
	schedule service.ScheduleService
	clock    trends.Clock
	limiter  *rate.Limiter
	size     int
	log      *logger.Logger
}

type ControllerConfig struct {
	// Size is the largest accepted :limit, normally the snapshot size.
	Size             int
	RefreshPerMinute float64
	RefreshBurst     int
}

// NewController builds the API controller. schedule may be nil when the
// daily refresh is disabled.
func NewController(
	trendService service.TrendService,
	schedule service.ScheduleService,
	clock trends.Clock,
	config ControllerConfig,
) *Controller {
	if config.Size <= 0 {
		config.Size = trends.DefaultSize
	}
	var limiter *rate.Limiter
	if config.RefreshPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RefreshPerMinute/60), max(config.RefreshBurst, 1))
	}
	return &Controller{
		trends:   trendService,
		schedule: schedule,
		clock:    clock,
		limiter:  limiter,
		size:     config.Size,
		log:      logger.GetLogger().WithField("component", "api"),
	}
}

// Index describes the service and its endpoints.
func (ctl *Controller) Index(c *fiber.Ctx) error {
	now := ctl.clock.Now()
	var next interface{}
	if ctl.schedule != nil {
		next = ctl.format(ctl.schedule.NextRun(now))
	}
	return c.JSON(fiber.Map{
		"message": "쇼핑트렌드 API",
		"version": Version,
		"endpoints": fiber.Map{
			"/api/trends":        "쇼핑트렌드 1~" + strconv.Itoa(ctl.size) + "위 조회",
			"/api/trends/:limit": "쇼핑트렌드 상위 N위 조회",
			"/api/refresh":       "트렌드 데이터 수동 갱신",
			"/api/health":        "서비스 상태 확인",
		},
		"last_update": ctl.lastUpdate(),
		"next_update": next,
	})
}

// Trends returns the whole cached snapshot.
func (ctl *Controller) Trends(c *fiber.Ctx) error {
	snapshot := ctl.trends.Read(c.UserContext())
	return c.JSON(fiber.Map{
		"success":     true,
		"data":        snapshot.Records,
		"count":       snapshot.Len(),
		"last_update": ctl.lastUpdate(),
		"timestamp":   ctl.now(),
	})
}

// TopTrends returns the first :limit records.
func (ctl *Controller) TopTrends(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Params("limit"))
	if err != nil || limit < 1 || limit > ctl.size {
		return ctl.fail(c, fiber.StatusBadRequest,
			"limit은 1~"+strconv.Itoa(ctl.size)+" 사이의 값이어야 합니다.")
	}

	records := ctl.trends.Read(c.UserContext()).Top(limit)
	return c.JSON(fiber.Map{
		"success":     true,
		"data":        records,
		"count":       len(records),
		"limit":       limit,
		"last_update": ctl.lastUpdate(),
		"timestamp":   ctl.now(),
	})
}

// Refresh runs a refresh and waits for it. A failed refresh keeps the old
// snapshot and still answers 200.
func (ctl *Controller) Refresh(c *fiber.Ctx) error {
	if ctl.limiter != nil && !ctl.limiter.Allow() {
		return ctl.fail(c, fiber.StatusTooManyRequests, "갱신 요청이 너무 많습니다. 잠시 후 다시 시도하세요.")
	}

	if err := ctl.trends.Refresh(c.UserContext()); err != nil {
		ctl.log.WithError(err).Warn("Manual refresh failed, serving previous snapshot")
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "트렌드 데이터가 갱신되었습니다.",
		"last_update": ctl.lastUpdate(),
		"count":       ctl.trends.Status().Count,
		"timestamp":   ctl.now(),
	})
}

func (ctl *Controller) Health(c *fiber.Ctx) error {
	st := ctl.trends.Status()
	return c.JSON(fiber.Map{
		"status":            "healthy",
		"scheduler_running": ctl.schedule != nil && ctl.schedule.Running(),
		"last_update":       ctl.lastUpdate(),
		"cache_count":       st.Count,
		"snapshot_id":       st.SnapshotID,
		"timestamp":         ctl.now(),
	})
}

func (ctl *Controller) fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success":   false,
		"error":     msg,
		"timestamp": ctl.now(),
	})
}

// lastUpdate is nil until the first successful refresh.
func (ctl *Controller) lastUpdate() interface{} {
	st := ctl.trends.Status()
	if !st.HasData() {
		return nil
	}
	return ctl.format(st.LastUpdate)
}

func (ctl *Controller) now() string {
	return ctl.format(ctl.clock.Now())
}

func (ctl *Controller) format(t time.Time) string {
	return t.In(ctl.clock.Location()).Format(TimestampLayout)
}
