package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/agromesh/cottonwatch/internal/controllers/restserver"
	"github.com/agromesh/cottonwatch/internal/controllers/scheduler"
	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/forecast"
	"github.com/agromesh/cottonwatch/internal/log"
	"github.com/agromesh/cottonwatch/pkg/config"
	"go.uber.org/zap"
)

// Controllers are components that run in the background for the lifetime of
// the daemon. The REST server answers forecast queries; the scheduler
// refreshes predictions on a cron spec.

// ControllerManager holds our active controllers.
type ControllerManager struct {
	Controllers []Controller
}

// Controller is an interface that provides standard methods for the
// controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a ControllerManager populated with every
// configured controller
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, service *forecast.Service, db *database.Client, logger *zap.SugaredLogger) (*ControllerManager, error) {
	cm := ControllerManager{}
	for _, con := range cfg.Controllers {
		switch con.Type {
		case "rest":
			log.Info("Creating REST server controller...")
			if con.RESTServer == nil {
				return &ControllerManager{}, fmt.Errorf("rest controller requires a rest config block")
			}
			controller, err := restserver.NewController(ctx, wg, *con.RESTServer, service, db, logger)
			if err != nil {
				return &ControllerManager{}, fmt.Errorf("error creating new REST server controller: %v", err)
			}
			cm.Controllers = append(cm.Controllers, controller)
		case "scheduler":
			log.Info("Creating scheduler controller...")
			var sc config.SchedulerData
			if con.Scheduler != nil {
				sc = *con.Scheduler
			}
			controller, err := scheduler.NewController(ctx, wg, sc, cfg.Fields, service, logger)
			if err != nil {
				return &ControllerManager{}, fmt.Errorf("error creating new scheduler controller: %v", err)
			}
			cm.Controllers = append(cm.Controllers, controller)
		default:
			return &ControllerManager{}, fmt.Errorf("unknown controller type: %v", con.Type)
		}
	}

	return &cm, nil
}

func (cm *ControllerManager) StartControllers() error {
	for _, c := range cm.Controllers {
		err := c.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	return nil
}
