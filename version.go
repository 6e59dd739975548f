/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import "fmt"

// Build information, overridden at link time:
//
//	go build -ldflags "-X github.com/suparena/tablestore.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// VersionInfo describes the library build.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
}

// GetVersionInfo returns the build information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

// String renders "tablestore/<version>", with the commit appended when known.
func (v VersionInfo) String() string {
	if v.GitCommit == "" || v.GitCommit == "unknown" {
		return "tablestore/" + v.Version
	}
	return fmt.Sprintf("tablestore/%s (%s)", v.Version, v.GitCommit)
}
