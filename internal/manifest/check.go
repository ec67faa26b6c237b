package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed is matched by every *ValidationError.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError is a tagged reason why fetched artifacts may not be
// installed. It is permanent and never retried.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Reason, e.Detail)
}

// Is makes errors.Is(err, ErrValidationFailed) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Ownership maps an installed package identifier to the repository that
// installed it.
type Ownership interface {
	OwnerOf(packageID string) (repository string, ok bool, err error)
}

// CheckInput is the set of artifacts fetched for one release.
type CheckInput struct {
	Repository    string
	Manifest      []byte
	BundlePresent bool
	Style         []byte
	RequireBundle bool
}

// Check gates installation of a fetched release. It returns the parsed
// manifest, or a *ValidationError naming exactly one reason.
//
// Style files are optional and never cause a failure on their own.
func Check(in CheckInput, owners Ownership) (*Manifest, error) {
	result, err := ValidateSchema(in.Manifest)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonMalformed, Detail: err.Error()}
	}
	if !result.Valid {
		return nil, schemaFailure(result.Issues)
	}

	m, err := Parse(in.Manifest)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonMalformed, Detail: err.Error()}
	}

	if owners != nil {
		owner, ok, err := owners.OwnerOf(m.ID)
		if err != nil {
			return nil, fmt.Errorf("looking up owner of %q: %w", m.ID, err)
		}
		if ok && !strings.EqualFold(owner, in.Repository) {
			return nil, &ValidationError{
				Reason: ReasonCollision,
				Detail: fmt.Sprintf("package id %q is already installed from %s", m.ID, owner),
			}
		}
	}

	if in.RequireBundle && !in.BundlePresent {
		return nil, &ValidationError{
			Reason: ReasonMissingRequired,
			Detail: fmt.Sprintf("release of %s has no main bundle", in.Repository),
		}
	}

	return m, nil
}

// schemaFailure classifies schema issues: a missing or empty id/version is
// ReasonMissingField, anything else ReasonMalformed.
func schemaFailure(issues []Issue) error {
	reason := ReasonMalformed
	details := make([]string, 0, len(issues))
	for _, issue := range issues {
		details = append(details, issue.String())
		switch issue.Keyword {
		case "required":
			reason = ReasonMissingField
		case "minLength":
			if issue.Path == "/id" || issue.Path == "/version" {
				reason = ReasonMissingField
			}
		}
	}
	return &ValidationError{Reason: reason, Detail: strings.Join(details, "; ")}
}
