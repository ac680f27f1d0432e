// Package visa implements VISA-style resource addressing and the transports
// instruments are reached through.
//
// It validates resource strings against a strict allow-list grammar before any
// I/O is attempted, and maps each accepted address onto a Transport: raw-socket
// TCP for TCPIP resources, a serial port for ASRL resources, and the Linux
// usbtmc character-device interface for USB resources. The scpi package builds
// its command wrapper on top of these transports.
package visa
