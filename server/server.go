// Package server exposes the instrument control panel over HTTP: session
// management, power supply, multimeter and oscilloscope operations, data
// export, and health reporting.
package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/config"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/health"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/instrument"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/keithley"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/scpi"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/tektronix"
)

// Handle is the connection capability the server hands to drivers.
// *scpi.Wrapper satisfies it.
type Handle interface {
	keithley.Conn
	QueryBinary(cmd string) ([]byte, error)
}

// HandleFactory builds a connection handle for a resource address. Tests
// substitute fakes here; production uses the SCPI wrapper.
type HandleFactory func(address string) (Handle, error)

// Server is the HTTP control panel.
type Server struct {
	cfg      config.Config
	registry *instrument.Registry
	checker  *health.Checker
	logger   logger.Logger
	engine   *gin.Engine

	newHandle HandleFactory
}

// New creates the control panel server with its routes registered.
func New(cfg config.Config, registry *instrument.Registry, checker *health.Checker, l logger.Logger) *Server {
	if l == nil {
		l = logger.GetLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:      cfg,
		registry: registry,
		checker:  checker,
		logger:   l,
		engine:   gin.New(),
	}
	s.newHandle = s.defaultHandleFactory
	s.engine.Use(gin.Recovery(), s.requestLog())
	s.registerRoutes()

	return s
}

// Engine returns the underlying gin engine, used by the daemon to serve and
// by tests to issue requests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) defaultHandleFactory(address string) (Handle, error) {
	return scpi.New(address,
		scpi.WithTimeout(s.cfg.VISATimeout),
		scpi.WithMaxCommandLength(s.cfg.MaxCommandLen),
		scpi.WithMaxResponseSize(s.cfg.MaxResponseSize),
		scpi.WithErrorQueueLimit(s.cfg.ErrorQueueLimit),
		scpi.WithLogger(s.logger),
	)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.POST("/connect", s.handleConnect)
		api.GET("/connections", s.handleListConnections)
		api.DELETE("/connect/:id", s.handleDisconnect)

		psu := api.Group("/psu/:id")
		{
			psu.POST("/channels/:ch/configure", s.handlePSUConfigure)
			psu.POST("/channels/:ch/output", s.handlePSUOutput)
			psu.GET("/channels/:ch/measure", s.handlePSUMeasure)
			psu.POST("/reset", s.handlePSUReset)
		}

		dmm := api.Group("/dmm/:id")
		{
			dmm.POST("/function", s.handleDMMFunction)
			dmm.GET("/measure", s.handleDMMMeasure)
			dmm.POST("/sampling/start", s.handleDMMStartSampling)
			dmm.POST("/sampling/stop", s.handleDMMStopSampling)
			dmm.GET("/samples", s.handleDMMSamples)
			dmm.GET("/stats", s.handleDMMStats)
		}

		scope := api.Group("/scope/:id")
		{
			scope.POST("/channels/:ch/configure", s.handleScopeConfigureChannel)
			scope.POST("/timebase", s.handleScopeTimebase)
			scope.POST("/trigger", s.handleScopeTrigger)
			scope.POST("/acquisition", s.handleScopeAcquisition)
			scope.GET("/measure", s.handleScopeMeasure)
			scope.GET("/waveform", s.handleScopeWaveform)
			scope.POST("/screenshot", s.handleScopeScreenshot)
		}

		api.POST("/export/samples", s.handleExportSamples)
		api.POST("/export/stats", s.handleExportStats)
		api.POST("/export/psu", s.handleExportPSU)
		api.POST("/export/waveform", s.handleExportWaveform)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// session resolves the :id route parameter.
func (s *Server) session(c *gin.Context) (*instrument.Session, bool) {
	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}

	return sess, true
}

// psu resolves the :id route parameter to a power supply driver.
func (s *Server) psu(c *gin.Context) (*keithley.PSU, bool) {
	sess, ok := s.session(c)
	if !ok {
		return nil, false
	}
	drv, ok := sess.Device.(*keithley.PSU)
	if !ok {
		s.fail(c, errWrongKindf(sess, instrument.KindPSU))
		return nil, false
	}

	return drv, true
}

// dmm resolves the :id route parameter to a multimeter driver.
func (s *Server) dmm(c *gin.Context) (*keithley.DMM, bool) {
	sess, ok := s.session(c)
	if !ok {
		return nil, false
	}
	drv, ok := sess.Device.(*keithley.DMM)
	if !ok {
		s.fail(c, errWrongKindf(sess, instrument.KindDMM))
		return nil, false
	}

	return drv, true
}

// scope resolves the :id route parameter to an oscilloscope driver.
func (s *Server) scope(c *gin.Context) (*tektronix.Scope, bool) {
	sess, ok := s.session(c)
	if !ok {
		return nil, false
	}
	drv, ok := sess.Device.(*tektronix.Scope)
	if !ok {
		s.fail(c, errWrongKindf(sess, instrument.KindScope))
		return nil, false
	}

	return drv, true
}
