package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/health"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/instrument"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/keithley"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/tektronix"
)

type connectRequest struct {
	Address string `json:"address" binding:"required"`
	Kind    string `json:"kind"`
}

// handleConnect opens a connection handle, wraps it in the requested driver
// and registers the session. If two requests race on one address, the loser
// of the registry claim disconnects again and reports the conflict.
func (s *Server) handleConnect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	kind := instrument.Kind(req.Kind)
	if req.Kind == "" {
		kind = instrument.KindGeneric
	}

	handle, err := s.newHandle(req.Address)
	if err != nil {
		s.fail(c, err)
		return
	}

	var dev instrument.Device
	switch kind {
	case instrument.KindPSU:
		psuCfg := keithley.PSU2230GConfig()
		psuCfg.SettleDelay = s.cfg.PSUSettleTime
		psuCfg.ResetDelay = s.cfg.PSUResetTime
		dev = keithley.NewPSU(handle, psuCfg, s.logger)
	case instrument.KindDMM:
		dev = keithley.NewDMM(handle, keithley.DMMConfig{
			BufferCapacity:  s.cfg.BufferCapacity,
			DefaultInterval: s.cfg.MeasurementInterval,
		}, s.logger)
	case instrument.KindScope:
		scopeCfg := tektronix.MSO24Config()
		scopeCfg.CommandDelay = s.cfg.CommandDelay
		scopeCfg.FreezeDelay = s.cfg.ScopeFreezeTime
		dev = tektronix.NewScope(handle, scopeCfg, s.logger)
	case instrument.KindGeneric:
		dev = handle
	default:
		s.badRequest(c, fmt.Errorf("unknown driver kind %q", req.Kind))
		return
	}

	if _, err := dev.Connect(); err != nil {
		s.fail(c, err)
		return
	}

	sess, err := s.registry.Add(req.Address, kind, dev)
	if err != nil {
		// Lost the address race after connecting; release the handle.
		if dErr := dev.Disconnect(); dErr != nil {
			s.logger.Warn("disconnect after lost address claim", "error", dErr)
		}
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": sess})
}

func (s *Server) handleListConnections(c *gin.Context) {
	sessions := make([]*instrument.Session, 0, s.registry.Len())
	s.registry.Range(func(sess *instrument.Session) bool {
		sessions = append(sessions, sess)
		return true
	})

	c.JSON(http.StatusOK, gin.H{"count": len(sessions), "sessions": sessions})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	sess, err := s.registry.Remove(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	// Stop any background sampling before the handle closes underneath it.
	if dmm, ok := sess.Device.(*keithley.DMM); ok {
		dmm.StopSampling()
	}

	if err := sess.Device.Disconnect(); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID, "disconnected": true})
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.checker.Run()

	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
