//go:build tools
// +build tools

package tools

import (
	_ "github.com/golangci/golangci-lint/v2/cmd/golangci-lint"
	_ "github.com/pressly/goose/v3/cmd/goose"
	_ "github.com/rakyll/hey"
	_ "github.com/wadey/gocovmerge"
	_ "mvdan.cc/gofumpt"
)
