// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package version carries the build information, overridden at link time with -ldflags "-X ..."
package version

import "runtime"

var (
	// PackageVersion is the release version
	PackageVersion = "NoBuildInfo"
	// PackageCommitID is the git commit the binary is built from
	PackageCommitID = "NoBuildInfo"
	// GitStatus is either clean or dirty
	GitStatus = "NoBuildInfo"
	// BuildTime is the time the binary is built
	BuildTime = "NoBuildInfo"
	// GoVersion is the go runtime version
	GoVersion = runtime.Version()
)
