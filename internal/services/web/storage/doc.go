// Package storage declares persistence interfaces for web-owned cache data.
//
// The cache holds collection payloads read from the backend for a short time.
// It is always derived data: any entry can be dropped and re-read.
package storage
