// Package utils contains small helper functions used across the project.
//
// These are usually generic helpers that don't belong to a specific domain.
package utils

import (
	"strings"
)

// DataURLSummary describes an inline file without its payload, so logs can
// mention photos and documents without dumping base64 blobs.
type DataURLSummary struct {
	MediaType string
	Bytes     int
}

// SummarizeDataURL inspects "data:<media type>;base64,<payload>" strings.
//
// Bytes is the decoded size estimated from the base64 length. Values that
// are not data URLs are reported with an empty media type and their raw length.
func SummarizeDataURL(value string) DataURLSummary {
	header, payload, ok := strings.Cut(value, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return DataURLSummary{Bytes: len(value)}
	}

	mediaType, params, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if !strings.Contains(params, "base64") {
		return DataURLSummary{MediaType: mediaType, Bytes: len(payload)}
	}

	padding := len(payload) - len(strings.TrimRight(payload, "="))
	return DataURLSummary{
		MediaType: mediaType,
		Bytes:     len(payload)/4*3 - padding,
	}
}

// TotalBytes sums the estimated decoded size of several inline files.
func TotalBytes(values ...string) int {
	total := 0
	for _, v := range values {
		total += SummarizeDataURL(v).Bytes
	}
	return total
}
