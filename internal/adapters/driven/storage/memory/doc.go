// Package memory provides in-memory implementations of driven ports.
// Nothing survives the process.
package memory
