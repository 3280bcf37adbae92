package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/forecast"
	"github.com/agromesh/cottonwatch/internal/log"
	"github.com/agromesh/cottonwatch/pkg/config"
	"github.com/agromesh/cottonwatch/pkg/responseformat"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller serves the forecast REST API
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	service    *forecast.Service
	db         *database.Client
	formatter  *responseformat.Formatter
	logger     *zap.SugaredLogger
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, service *forecast.Service, db *database.Client, logger *zap.SugaredLogger) (*Controller, error) {
	if rc.HTTPPort == 0 {
		return nil, fmt.Errorf("rest.http_port must be set")
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.DefaultListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.DefaultListenAddr = "0.0.0.0"
	}

	c := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		service:    service,
		db:         db,
		formatter:  responseformat.NewFormatter(),
		logger:     logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", c.getHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/fields/{field_id}/predict", c.postPredict).Methods(http.MethodPost)
	api.HandleFunc("/fields/{field_id}/simulate", c.postSimulate).Methods(http.MethodPost)
	api.HandleFunc("/fields/{field_id}/map", c.getMap).Methods(http.MethodGet)
	api.HandleFunc("/fields/{field_id}/timeseries", c.getTimeseries).Methods(http.MethodGet)
	api.HandleFunc("/fields/{field_id}/summary", c.getSummary).Methods(http.MethodGet)
	api.HandleFunc("/fields/{field_id}/dates", c.getDates).Methods(http.MethodGet)

	c.Server.Addr = fmt.Sprintf("%v:%v", rc.DefaultListenAddr, rc.HTTPPort)
	c.Server.Handler = router

	return c, nil
}

func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}
