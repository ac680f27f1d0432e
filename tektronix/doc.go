// Package tektronix implements a driver for the Tektronix MSO24 mixed
// signal oscilloscope: channel, timebase and trigger configuration,
// acquisition control, automated measurements, waveform curve download with
// preamble scaling, and display screenshot capture.
package tektronix
