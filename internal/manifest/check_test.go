package manifest

import (
	"errors"
	"testing"
)

type ownerMap map[string]string

func (o ownerMap) OwnerOf(id string) (string, bool, error) {
	repo, ok := o[id]
	return repo, ok, nil
}

type brokenOwners struct{}

func (brokenOwners) OwnerOf(string) (string, bool, error) {
	return "", false, errors.New("tracking file unreadable")
}

const validManifest = `{"id":"sample-plugin","name":"Sample","version":"1.2.0"}`

func TestCheck_Valid(t *testing.T) {
	m, err := Check(CheckInput{
		Repository:    "A/x",
		Manifest:      []byte(validManifest),
		BundlePresent: true,
		RequireBundle: true,
	}, ownerMap{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m.ID != "sample-plugin" || m.Version != "1.2.0" {
		t.Errorf("manifest = %+v", m)
	}
}

func TestCheck_StyleIsOptional(t *testing.T) {
	for _, style := range [][]byte{nil, []byte(".a{}")} {
		if _, err := Check(CheckInput{
			Repository:    "A/x",
			Manifest:      []byte(validManifest),
			BundlePresent: true,
			Style:         style,
			RequireBundle: true,
		}, nil); err != nil {
			t.Errorf("Check with style %q: %v", style, err)
		}
	}
}

func TestCheck_SameRepositoryMayReinstall(t *testing.T) {
	_, err := Check(CheckInput{
		Repository:    "a/X",
		Manifest:      []byte(validManifest),
		BundlePresent: true,
	}, ownerMap{"sample-plugin": "A/x"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCheck_UnreadableOwnersFailsClosed(t *testing.T) {
	_, err := Check(CheckInput{
		Repository:    "B/y",
		Manifest:      []byte(validManifest),
		BundlePresent: true,
	}, brokenOwners{})
	if err == nil {
		t.Fatal("expected error when ownership cannot be read")
	}
	if errors.Is(err, ErrValidationFailed) {
		t.Errorf("store failure reported as validation failure: %v", err)
	}
}

func TestCheck_Failures(t *testing.T) {
	tests := []struct {
		name   string
		input  CheckInput
		owners ownerMap
		reason string
	}{
		{
			name:   "unparseable manifest",
			input:  CheckInput{Repository: "A/x", Manifest: []byte("{"), BundlePresent: true},
			reason: ReasonMalformed,
		},
		{
			name:   "manifest is not an object",
			input:  CheckInput{Repository: "A/x", Manifest: []byte(`["id"]`), BundlePresent: true},
			reason: ReasonMalformed,
		},
		{
			name:   "missing id",
			input:  CheckInput{Repository: "A/x", Manifest: []byte(`{"version":"1.0.0"}`), BundlePresent: true},
			reason: ReasonMissingField,
		},
		{
			name:   "empty version",
			input:  CheckInput{Repository: "A/x", Manifest: []byte(`{"id":"x","version":""}`), BundlePresent: true},
			reason: ReasonMissingField,
		},
		{
			name:   "identifier owned by another repository",
			input:  CheckInput{Repository: "B/z", Manifest: []byte(validManifest), BundlePresent: true},
			owners: ownerMap{"sample-plugin": "A/x"},
			reason: ReasonCollision,
		},
		{
			name:   "missing bundle",
			input:  CheckInput{Repository: "A/x", Manifest: []byte(validManifest), RequireBundle: true},
			reason: ReasonMissingRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Check(tt.input, tt.owners)
			if m != nil {
				t.Errorf("expected no manifest on failure, got %+v", m)
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("err = %v, want ErrValidationFailed", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err is %T, want *ValidationError", err)
			}
			if ve.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q (%s)", ve.Reason, tt.reason, ve.Detail)
			}
		})
	}
}
