// Package keithley implements drivers for Keithley bench instruments: the
// 2230G series triple-channel power supply and the DMM6500 digital
// multimeter. Drivers speak SCPI through a connection handle and validate
// every parameter against the instrument's published limits before any
// command is sent.
package keithley
