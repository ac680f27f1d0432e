package tektronix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scriptPreamble(conn *fakeConn, yMult, yOff, yZero, xIncr, xZero string) {
	conn.addResponse("WFMOutpre:YMUlt?", yMult)
	conn.addResponse("WFMOutpre:YOFf?", yOff)
	conn.addResponse("WFMOutpre:YZEro?", yZero)
	conn.addResponse("WFMOutpre:XINcr?", xIncr)
	conn.addResponse("WFMOutpre:XZEro?", xZero)
}

func TestWaveformDownload(t *testing.T) {
	require := require.New(t)

	conn := newFakeConn()
	scriptPreamble(conn, "0.01", "0.0", "0.0", "1.0E-6", "-5.0E-4")
	// Samples include negative raw values to cover the signed conversion.
	conn.addBinary("CURVe?", []byte{0, 100, 0x9C, 50}) // 0, 100, -100, 50
	scope := newTestScope(conn)

	wf, err := scope.Waveform(2)
	require.NoError(err)
	require.Equal(2, wf.Channel)
	require.Len(wf.Points, 4)
	require.InDelta(0.0, wf.Points[0], 1e-12)
	require.InDelta(1.0, wf.Points[1], 1e-12)
	require.InDelta(-1.0, wf.Points[2], 1e-12)
	require.InDelta(0.5, wf.Points[3], 1e-12)
	require.InDelta(1e-6, wf.XIncrement, 1e-18)
	require.InDelta(-5e-4, wf.XZero, 1e-12)

	cmds := conn.commands()
	require.Equal("ACQuire:STATE STOP", cmds[0])
	require.Equal("ACQuire:STATE RUN", cmds[len(cmds)-1])
	require.Contains(cmds, "DATa:SOUrce CH2")
	require.Contains(cmds, "DATa:ENCdg RIBinary")
	require.Contains(cmds, "DATa:WIDth 1")
}

func TestWaveformScalingUsesPreamble(t *testing.T) {
	require := require.New(t)

	conn := newFakeConn()
	scriptPreamble(conn, "0.02", "-25.0", "0.1", "4.0E-9", "0.0")
	conn.addBinary("CURVe?", []byte{0}) // (0 - (-25)) * 0.02 + 0.1 = 0.6
	scope := newTestScope(conn)

	wf, err := scope.Waveform(1)
	require.NoError(err)
	require.InDelta(0.6, wf.Points[0], 1e-12)
}

func TestWaveformEmptyCurve(t *testing.T) {
	require := require.New(t)

	conn := newFakeConn()
	scriptPreamble(conn, "0.01", "0", "0", "1e-6", "0")
	conn.addBinary("CURVe?", []byte{})
	scope := newTestScope(conn)

	_, err := scope.Waveform(1)
	require.ErrorIs(err, ErrEmptyWaveform)
}

func TestWaveformInvalidChannel(t *testing.T) {
	require := require.New(t)

	conn := newFakeConn()
	scope := newTestScope(conn)

	_, err := scope.Waveform(0)
	require.ErrorIs(err, ErrInvalidChannel)
	require.Empty(conn.commands(), "no acquisition change for a rejected channel")
}

func TestWaveformTimes(t *testing.T) {
	require := require.New(t)

	wf := &Waveform{
		Points:     []float64{1, 2, 3},
		XIncrement: 0.5,
		XZero:      -0.5,
	}
	require.Equal([]float64{-0.5, 0.0, 0.5}, wf.Times())
}
