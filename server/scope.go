package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/export"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/tektronix"
)

type scopeChannelRequest struct {
	Scale     float64 `json:"scale"`
	Offset    float64 `json:"offset"`
	Coupling  string  `json:"coupling"`
	ProbeGain float64 `json:"probe_gain"`
}

func (s *Server) handleScopeConfigureChannel(c *gin.Context) {
	scope, ok := s.scope(c)
	if !ok {
		return
	}
	ch, err := channelParam(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	var req scopeChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if req.Coupling == "" {
		req.Coupling = string(tektronix.CouplingDC)
	}
	if req.ProbeGain == 0 {
		req.ProbeGain = 1
	}

	setup := tektronix.ChannelSetup{
		Scale:     req.Scale,
		Offset:    req.Offset,
		Coupling:  tektronix.Coupling(req.Coupling),
		ProbeGain: req.ProbeGain,
	}
	if err := scope.ConfigureChannel(ch, setup); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": ch, "setup": setup})
}

type timebaseRequest struct {
	Scale    float64 `json:"scale"`
	Position float64 `json:"position"`
}

func (s *Server) handleScopeTimebase(c *gin.Context) {
	scope, ok := s.scope(c)
	if !ok {
		return
	}

	var req timebaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := scope.ConfigureTimebase(req.Scale, req.Position); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scale": req.Scale, "position": req.Position})
}

type triggerRequest struct {
	Channel int     `json:"channel"`
	Level   float64 `json:"level"`
	Slope   string  `json:"slope"`
}

func (s *Server) handleScopeTrigger(c *gin.Context) {
	scope, ok := s.scope(c)
	if !ok {
		return
	}

	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if req.Slope == "" {
		req.Slope = string(tektronix.SlopeRise)
	}

	if err := scope.ConfigureEdgeTrigger(req.Channel, req.Level, tektronix.Slope(req.Slope)); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "level": req.Level, "slope": req.Slope})
}

type acquisitionRequest struct {
	Action string `json:"action" binding:"required"`
}

func (s *Server) handleScopeAcquisition(c *gin.Context) {
	scope, ok := s.scope(c)
	if !ok {
		return
	}

	var req acquisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	var err error
	switch req.Action {
	case "run":
		err = scope.Run()
	case "stop":
		err = scope.Stop()
	case "single":
		err = scope.SingleSequence()
	default:
		s.badRequest(c, fmt.Errorf("unknown acquisition action %q", req.Action))
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": req.Action})
}

func (s *Server) handleScopeMeasure(c *gin.Context) {
	scope, ok := s.scope(c)
	if !ok {
		return
	}

	ch, err := strconv.Atoi(c.DefaultQuery("channel", "1"))
	if err != nil {
		s.badRequest(c, err)
		return
	}
	typ := tektronix.MeasurementType(c.Query("type"))

	val, err := scope.Measure(ch, typ)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": ch, "type": typ, "value": val})
}

func (s *Server) handleScopeWaveform(c *gin.Context) {
	scope, ok := s.scope(c)
	if !ok {
		return
	}

	ch, err := strconv.Atoi(c.DefaultQuery("channel", "1"))
	if err != nil {
		s.badRequest(c, err)
		return
	}

	wf, err := scope.Waveform(ch)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"waveform": wf})
}

type screenshotRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) handleScopeScreenshot(c *gin.Context) {
	scope, ok := s.scope(c)
	if !ok {
		return
	}

	var req screenshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if req.Filename == "" {
		req.Filename = export.TimestampedName("scope_screenshot", "png")
	}

	img, err := scope.Screenshot()
	if err != nil {
		s.fail(c, err)
		return
	}

	path, err := export.WriteScreenshot(s.cfg.ScreenshotDir, req.Filename, img)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "bytes": len(img)})
}
