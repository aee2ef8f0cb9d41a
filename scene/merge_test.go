package scene

import (
	"testing"
)

func TestMerge_DefaultsOnly(t *testing.T) {
	got := Merge(nil, SuffixTags{Base: "Chair"})

	if got != DefaultProperties() {
		t.Errorf("Merge with no inputs = %+v, want compiled defaults", got)
	}
	if !got.Active {
		t.Error("Defaults must be active")
	}
	if got.Payload {
		t.Error("Defaults must compose by reference")
	}
}

func TestMerge_OverridesWin(t *testing.T) {
	overrides := DefaultProperties()
	overrides.Kind = KindComponent
	overrides.Hidden = true
	overrides.AssetVersion = "v003"

	got := Merge(&overrides, SuffixTags{Base: "Chair"})

	if got.Kind != KindComponent {
		t.Errorf("Kind = %v, want component", got.Kind)
	}
	if !got.Hidden {
		t.Error("Hidden override lost")
	}
	if got.AssetVersion != "v003" {
		t.Errorf("AssetVersion = %q, want \"v003\"", got.AssetVersion)
	}
}

func TestMerge_SuffixWinsOverOverrides(t *testing.T) {
	proxy := PurposeProxy
	loaded := true

	overrides := DefaultProperties()
	overrides.Purpose = PurposeRender
	overrides.Payload = false

	got := Merge(&overrides, SuffixTags{Base: "Chair", Purpose: &proxy, Payload: &loaded})

	if got.Purpose != PurposeProxy {
		t.Errorf("Purpose = %v, suffix must win over override", got.Purpose)
	}
	if !got.Payload {
		t.Error("Payload suffix must win over override")
	}
}

func TestMerge_SuffixTouchesOnlyItsFields(t *testing.T) {
	guide := PurposeGuide

	overrides := DefaultProperties()
	overrides.Kind = KindModel
	overrides.Instanceable = true

	got := Merge(&overrides, SuffixTags{Base: "Chair", Purpose: &guide})

	if got.Kind != KindModel {
		t.Error("Suffix merge must not disturb kind")
	}
	if !got.Instanceable {
		t.Error("Suffix merge must not disturb instanceable")
	}
	if got.Purpose != PurposeGuide {
		t.Errorf("Purpose = %v, want guide", got.Purpose)
	}
}
