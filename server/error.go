package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/export"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/instrument"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/keithley"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/scpi"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/tektronix"
)

var errWrongKind = errors.New("wrong driver kind")

// errWrongKindf reports a session whose driver does not match the
// operation's expected kind.
func errWrongKindf(sess *instrument.Session, want instrument.Kind) error {
	return fmt.Errorf("%w: session %s is %s, not %s", errWrongKind, sess.ID, sess.Kind, want)
}

// errorResponse is the JSON body of every failed request. It carries the
// error kind and message only; internals never leak to clients.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errClass maps an error onto an HTTP status and a stable kind string.
func errClass(err error) (int, string) {
	switch {
	case errors.Is(err, scpi.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_address"
	case errors.Is(err, scpi.ErrInvalidCommand):
		return http.StatusBadRequest, "invalid_command"
	case errors.Is(err, instrument.ErrValueOutOfRange):
		return http.StatusBadRequest, "value_out_of_range"
	case errors.Is(err, keithley.ErrInvalidChannel),
		errors.Is(err, tektronix.ErrInvalidChannel):
		return http.StatusBadRequest, "invalid_channel"
	case errors.Is(err, keithley.ErrUnknownFunction):
		return http.StatusBadRequest, "unknown_function"
	case errors.Is(err, tektronix.ErrInvalidCoupling),
		errors.Is(err, tektronix.ErrInvalidSlope),
		errors.Is(err, tektronix.ErrInvalidMeasurement):
		return http.StatusBadRequest, "invalid_setting"
	case errors.Is(err, export.ErrInvalidFilename),
		errors.Is(err, export.ErrPathTraversal):
		return http.StatusBadRequest, "invalid_filename"
	case errors.Is(err, export.ErrNoData):
		return http.StatusBadRequest, "no_data"
	case errors.Is(err, instrument.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, instrument.ErrAddressInUse):
		return http.StatusConflict, "address_in_use"
	case errors.Is(err, scpi.ErrNotConnected):
		return http.StatusConflict, "not_connected"
	case errors.Is(err, keithley.ErrSamplingActive):
		return http.StatusConflict, "sampling_active"
	case errors.Is(err, errWrongKind):
		return http.StatusConflict, "wrong_driver_kind"
	case errors.Is(err, scpi.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, scpi.ErrConnection):
		return http.StatusBadGateway, "connection_failed"
	case errors.Is(err, scpi.ErrProtocol),
		errors.Is(err, scpi.ErrErrorQueueOverflow),
		errors.Is(err, keithley.ErrInstrumentFault):
		return http.StatusBadGateway, "instrument_fault"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes the error response for err.
func (s *Server) fail(c *gin.Context, err error) {
	status, kind := errClass(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, errorResponse{Error: kind, Message: err.Error()})
}

// badRequest writes a malformed-payload response.
func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
}
