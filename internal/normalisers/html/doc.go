// Package html extracts text from HTML documents with golang.org/x/net/html.
// Scripts and styles are dropped, block elements become line breaks, and
// the body is split into sections at h1-h3 headings so citations can name
// the section they came from.
package html
