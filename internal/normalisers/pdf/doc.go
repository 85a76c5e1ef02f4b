// Package pdf provides a Normaliser for PDF documents backed by poppler's
// pdftotext. Each page becomes a section located by its page number.
package pdf
