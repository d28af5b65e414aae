package models

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// FetchStatus records how the fetch that produced a snapshot ended.
type FetchStatus string

const (
	FetchOK         FetchStatus = "ok"
	FetchHTTPError  FetchStatus = "http_error"
	FetchTimeout    FetchStatus = "timeout"
	FetchParseError FetchStatus = "parse_error"
)

// Snapshot is the last-known normalized state of a source. Exactly one row
// exists per source; commits replace it in place.
type Snapshot struct {
	SourceID       string `gorm:"primaryKey"`
	ContentHash    string
	NormalizedText string
	FetchedAt      time.Time
	FetchStatus    FetchStatus

	WordCount      int
	HTTPStatus     int
	ResponseTimeMS int64
}

type Snapshots []Snapshot

func DigestContent(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}
