package scene

// Merge resolves the final PropertySet for one fragment by layering, highest
// priority last: compiled-in defaults, the attribute-holder block when
// present, then suffix-derived overrides. Suffixes are a visible-in-filename
// authoring convention and must win over a modifier value for the two fields
// they control (purpose and payload) without requiring the user to edit the
// modifier. There is no conflict error.
func Merge(overrides *PropertySet, tags SuffixTags) PropertySet {
	props := DefaultProperties()
	if overrides != nil {
		props = *overrides
	}
	if tags.Purpose != nil {
		props.Purpose = *tags.Purpose
	}
	if tags.Payload != nil {
		props.Payload = *tags.Payload
	}
	return props
}
