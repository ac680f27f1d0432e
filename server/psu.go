package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func channelParam(c *gin.Context) (int, error) {
	return strconv.Atoi(c.Param("ch"))
}

type psuConfigureRequest struct {
	Voltage float64 `json:"voltage"`
	Current float64 `json:"current"`
}

func (s *Server) handlePSUConfigure(c *gin.Context) {
	psu, ok := s.psu(c)
	if !ok {
		return
	}
	ch, err := channelParam(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	var req psuConfigureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := psu.Configure(ch, req.Voltage, req.Current); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": ch, "voltage": req.Voltage, "current": req.Current})
}

type psuOutputRequest struct {
	On bool `json:"on"`
}

func (s *Server) handlePSUOutput(c *gin.Context) {
	psu, ok := s.psu(c)
	if !ok {
		return
	}
	ch, err := channelParam(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	var req psuOutputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if req.On {
		err = psu.EnableOutput(ch)
	} else {
		err = psu.DisableOutput(ch)
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": ch, "on": req.On})
}

func (s *Server) handlePSUMeasure(c *gin.Context) {
	psu, ok := s.psu(c)
	if !ok {
		return
	}
	ch, err := channelParam(c)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	m, err := psu.Measure(ch)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"measurement": m})
}

func (s *Server) handlePSUReset(c *gin.Context) {
	psu, ok := s.psu(c)
	if !ok {
		return
	}

	if err := psu.Reset(); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": true})
}
