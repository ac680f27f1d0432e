// Package instrument defines the capability interfaces shared by all
// instrument drivers, the parsed identification record, numeric range
// validation for instrument parameters, and the session registry tracking
// open connection handles.
package instrument
