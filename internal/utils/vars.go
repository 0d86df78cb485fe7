package utils

import (
	"errors"
	"regexp"
	"time"
)

const ChunkSize = 1024
const DefaultExtension = ".mp4"
const DefaultNavTimeout = 60 * time.Second
const DefaultLoginURL = "https://weblogin.umich.edu/"
const DefaultCatalogURL = "https://leccap.engin.umich.edu/leccap"
const ToolUserAgent = "leccap-cli"

var (
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrTransport         = errors.New("transport error")
	ErrMediaNotFound     = errors.New("no playable media source")
	ErrBackendInit       = errors.New("no usable browser backend")
	ErrNoInput           = errors.New("input closed")
)

var unsafeNameChars = regexp.MustCompile(`[;/?:"=|*]`)
