// Package domain contains the core entities of the recording conversion
// service: recordings, the insights derived from them, and the action items
// extracted from their transcripts. Entities validate themselves and carry
// no persistence or transport concerns.
package domain
