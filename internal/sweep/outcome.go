package sweep

import (
	"context"
	"errors"

	"github.com/agentx-labs/brat/internal/host"
	"github.com/agentx-labs/brat/internal/manifest"
	"github.com/agentx-labs/brat/internal/updater"
)

// Stage is the step an item reached in the install pipeline.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageResolving  Stage = "resolving"
	StageFetching   Stage = "fetching"
	StageValidating Stage = "validating"
	StageInstalling Stage = "installing"
)

// Status is the result of processing one item.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Kind distinguishes packages from themes.
type Kind string

const (
	KindPackage Kind = "package"
	KindTheme   Kind = "theme"
)

// Outcome records what happened to one tracked repository.
type Outcome struct {
	Kind       Kind
	Repository string
	// PackageID is the manifest identifier for packages and the theme name
	// for themes, once known.
	PackageID string
	Tag       string
	// Stage is StageIdle after success and the failing stage otherwise.
	Stage  Stage
	Status Status
	Err    error
}

// Failed reports whether the item failed.
func (o Outcome) Failed() bool { return o.Status == StatusFailed }

// Reason labels the failure with its error class. It is empty for items
// that did not fail.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return ReasonOf(o.Err)
}

// ReasonOf maps err to a stable label.
func ReasonOf(err error) string {
	var ve *manifest.ValidationError
	var he *updater.HTTPError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Reason
	case errors.Is(err, updater.ErrNotFound):
		return "not-found"
	case errors.Is(err, updater.ErrAmbiguousAssets):
		return "ambiguous-assets"
	case errors.Is(err, updater.ErrAssetTooLarge):
		return "asset-too-large"
	case errors.Is(err, updater.ErrNetworkTransient):
		return "network-transient"
	case errors.Is(err, host.ErrHostWriteFailed):
		return "host-write-failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &he):
		return "http-error"
	default:
		return "error"
	}
}

func (o *Outcome) fail(stage Stage, err error) Outcome {
	o.Stage = stage
	o.Status = StatusFailed
	o.Err = err
	return *o
}

func (o *Outcome) done(status Status) Outcome {
	o.Stage = StageIdle
	o.Status = status
	return *o
}
