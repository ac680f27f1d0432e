package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/export"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/instrument"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/keithley"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/tektronix"
)

type exportRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Filename  string `json:"filename"`
	Channel   int    `json:"channel"`
}

func (s *Server) exportDMM(c *gin.Context, req exportRequest) (*keithley.DMM, bool) {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	dmm, ok := sess.Device.(*keithley.DMM)
	if !ok {
		s.fail(c, errWrongKindf(sess, instrument.KindDMM))
		return nil, false
	}

	return dmm, true
}

func (s *Server) handleExportSamples(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	dmm, ok := s.exportDMM(c, req)
	if !ok {
		return
	}

	if req.Filename == "" {
		req.Filename = export.TimestampedName("dmm_series", "csv")
	}
	path, err := export.WriteSamplesCSV(s.cfg.DataDir, req.Filename, dmm.Samples())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path})
}

func (s *Server) handleExportStats(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	dmm, ok := s.exportDMM(c, req)
	if !ok {
		return
	}

	if req.Filename == "" {
		req.Filename = export.TimestampedName("dmm_stats", "json")
	}
	path, err := export.WriteStatsJSON(s.cfg.DataDir, req.Filename, dmm.Function(), dmm.Stats())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path})
}

// handleExportPSU snapshots every power supply channel and writes the
// readbacks as one CSV file.
func (s *Server) handleExportPSU(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	psu, ok := sess.Device.(*keithley.PSU)
	if !ok {
		s.fail(c, errWrongKindf(sess, instrument.KindPSU))
		return
	}

	measurements, err := psu.MeasureAll()
	if err != nil {
		s.fail(c, err)
		return
	}

	if req.Filename == "" {
		req.Filename = export.TimestampedName("psu_snapshot", "csv")
	}
	path, err := export.WritePSUMeasurementsCSV(s.cfg.DataDir, req.Filename, measurements)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "channels": len(measurements)})
}

func (s *Server) handleExportWaveform(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	scope, ok := sess.Device.(*tektronix.Scope)
	if !ok {
		s.fail(c, errWrongKindf(sess, instrument.KindScope))
		return
	}

	if req.Channel == 0 {
		req.Channel = 1
	}
	wf, err := scope.Waveform(req.Channel)
	if err != nil {
		s.fail(c, err)
		return
	}

	if req.Filename == "" {
		req.Filename = export.TimestampedName("waveform_ch"+strconv.Itoa(req.Channel), "csv")
	}
	path, err := export.WriteWaveformCSV(s.cfg.WaveformDir, req.Filename, wf)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "points": len(wf.Points)})
}
