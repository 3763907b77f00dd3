package dev

import "time"

// Server
const (
	ServerPort = ":8000"
)

// Separation
const (
	SessionStorageDirPath = "/tmp"
	SeparationTimeout     = 5 * time.Minute
	MaxUploadFileSize     = 50 * 1024 * 1024
	SessionRetention      = 0 // no background eviction in dev
)
