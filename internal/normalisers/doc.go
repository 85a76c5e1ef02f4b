// Package normalisers provides implementations of the Normaliser interface
// for the document formats found in diligence packets. Each normaliser knows
// how to extract located text (pages or sections) from a specific MIME type.
//
// Normalisers are registered with the Registry at startup; see Defaults.
package normalisers
