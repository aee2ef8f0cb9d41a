// Package scene defines the metadata model for one export batch: fragment
// records read from the hierarchy sidecar, per-object property sets and the
// naming-suffix conventions that carry assembly semantics.
package scene

// FragmentRecord describes one exported object: where its fragment file
// lives, what the object was called in the host scene and the ordered chain
// of ancestor names down from the export root. Container-only objects
// (groups, dummy helpers) have no fragment file but still appear in the
// sidecar so their children can resolve them.
//
// Records are created once by the exporting pass, read exactly once by the
// assembler and never mutated afterwards.
type FragmentRecord struct {
	ObjectName string       // original scene-object name, suffixes included
	FilePath   string       // fragment file, empty for container-only records
	ParentPath []string     // ancestor names, export root first; empty for roots
	Overrides  *PropertySet // attribute-holder block, nil when absent
}

// PropertySet is the resolved configuration for a prim. Every field has a
// defined default so that an object with no overrides and no suffix still
// produces a fully-specified prim.
type PropertySet struct {
	GeomType     GeomType
	Kind         Kind
	Purpose      Purpose
	Instanceable bool
	Hidden       bool
	Active       bool
	Payload      bool
	AssetVersion string
	DrawMode     DrawMode
}

// DefaultProperties returns the compiled-in defaults: an active, visible,
// reference-composed prim with auto-resolved schema type and no model
// classification.
func DefaultProperties() PropertySet {
	return PropertySet{
		GeomType: GeomTypeAuto,
		Kind:     KindNone,
		Purpose:  PurposeDefault,
		Active:   true,
		DrawMode: DrawModeDefault,
	}
}

// Warning is a recoverable condition accumulated during assembly and
// surfaced to the caller alongside a successful result.
type Warning struct {
	Kind    string // one of the Warn* constants
	Object  string // object or fragment the condition was observed on
	Message string
}

// Recoverable warning kinds.
const (
	WarnMalformedSuffix      = "malformed_suffix"
	WarnWrapperShapeMismatch = "wrapper_shape_mismatch"
	WarnUnknownProperty      = "unknown_property_value"
	WarnMissingFragment      = "missing_fragment_file"
)
