package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/keithley"
)

type dmmFunctionRequest struct {
	Function string `json:"function" binding:"required"`
}

func (s *Server) handleDMMFunction(c *gin.Context) {
	dmm, ok := s.dmm(c)
	if !ok {
		return
	}

	var req dmmFunctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	fn, err := keithley.ParseFunction(req.Function)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := dmm.SetFunction(fn); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"function": fn, "unit": fn.Unit()})
}

func (s *Server) handleDMMMeasure(c *gin.Context) {
	dmm, ok := s.dmm(c)
	if !ok {
		return
	}

	sample, err := dmm.Measure()
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sample": sample})
}

type samplingRequest struct {
	IntervalMS int `json:"interval_ms"`
}

func (s *Server) handleDMMStartSampling(c *gin.Context) {
	dmm, ok := s.dmm(c)
	if !ok {
		return
	}

	var req samplingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	// The loop must outlive this request; it is stopped via the sampling
	// stop endpoint or on disconnect.
	interval := time.Duration(req.IntervalMS) * time.Millisecond
	if err := dmm.StartSampling(context.Background(), interval); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sampling": true})
}

func (s *Server) handleDMMStopSampling(c *gin.Context) {
	dmm, ok := s.dmm(c)
	if !ok {
		return
	}

	dmm.StopSampling()
	c.JSON(http.StatusOK, gin.H{"sampling": false})
}

func (s *Server) handleDMMSamples(c *gin.Context) {
	dmm, ok := s.dmm(c)
	if !ok {
		return
	}

	samples := dmm.Samples()
	c.JSON(http.StatusOK, gin.H{"count": len(samples), "samples": samples})
}

func (s *Server) handleDMMStats(c *gin.Context) {
	dmm, ok := s.dmm(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"function": dmm.Function(), "stats": dmm.Stats()})
}
