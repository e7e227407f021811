package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/htmlconcat/internal/config"
	"git.home.luguber.info/inful/htmlconcat/internal/diagnostics"
)

// BuildService executes site builds.
type BuildService interface {
	// Run executes discover → transform → write and returns the outcome.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	Config *config.Config

	// DryRun transforms every document but writes nothing.
	DryRun bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	Status  BuildStatus
	BuildID string

	// Documents is the number of input files transformed.
	Documents int

	// FilesWritten counts output files (rewritten HTML, bundles, singletons, passthrough).
	FilesWritten int

	// Warnings holds missing-asset diagnostics in document order.
	Warnings []diagnostics.Diagnostic

	// Conflicts lists output paths produced with different content by
	// different documents. The first document wins.
	Conflicts []string

	OutputPath string
	Duration   time.Duration
	StartTime  time.Time
	EndTime    time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusWarning   BuildStatus = "warning"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build produced output.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusWarning
}
