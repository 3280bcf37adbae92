package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/agromesh/cottonwatch/internal/forecast"
	"github.com/agromesh/cottonwatch/internal/log"
	"github.com/agromesh/cottonwatch/internal/model"
	"github.com/agromesh/cottonwatch/pkg/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultCronSpec = "30 2 * * *"

// Controller refreshes predictions and rolls the forecast horizon forward
// on a cron schedule, so the dashboard stays current without manual
// predict/simulate calls.
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	schedCfg config.SchedulerData
	fields   []config.FieldData
	service  *forecast.Service
	cron     *cron.Cron
	logger   *zap.SugaredLogger
}

// NewController creates a new scheduler controller
func NewController(ctx context.Context, wg *sync.WaitGroup, sc config.SchedulerData, fields []config.FieldData, service *forecast.Service, logger *zap.SugaredLogger) (*Controller, error) {
	if sc.CronSpec == "" {
		sc.CronSpec = defaultCronSpec
	}
	if sc.SimulateDays == 0 {
		sc.SimulateDays = config.DefaultExtendDays
	}

	c := &Controller{
		ctx:      ctx,
		wg:       wg,
		schedCfg: sc,
		fields:   fields,
		service:  service,
		cron:     cron.New(),
		logger:   logger,
	}

	if _, err := c.cron.AddFunc(sc.CronSpec, c.refreshAll); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Controller) StartController() error {
	log.Info("Starting scheduler controller...")
	c.wg.Add(1)

	c.cron.Start()

	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		log.Info("Shutting down the scheduler...")
		stopCtx := c.cron.Stop()
		<-stopCtx.Done()
	}()

	return nil
}

// refreshAll re-scores the latest observed date for every configured field
// and extends the forecast horizon from it
func (c *Controller) refreshAll() {
	for _, f := range c.fields {
		c.refreshField(f)
	}
}

func (c *Controller) refreshField(f config.FieldData) {
	start := time.Now()

	predictions, err := c.service.PredictField(f.ID, time.Time{})
	if err != nil {
		if errors.Is(err, model.ErrUnavailable) {
			c.logger.Warnf("skipping scheduled refresh for field %v (%v): model unavailable", f.ID, f.Name)
			return
		}
		c.logger.Errorf("scheduled prediction refresh failed for field %v (%v): %v", f.ID, f.Name, err)
		return
	}

	simulated, err := c.service.Simulate(f.ID, time.Time{}, c.schedCfg.SimulateDays)
	if err != nil {
		c.logger.Errorf("scheduled simulation failed for field %v (%v): %v", f.ID, f.Name, err)
		return
	}

	c.logger.Infof("refreshed field %v (%v): %v nowcast rows, %v simulated rows in %v",
		f.ID, f.Name, len(predictions), len(simulated), time.Since(start).Round(time.Millisecond))
}
