package scene

import (
	"bytes"
	"fmt"
	"os"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
)

// SidecarName is the hierarchy metadata file the exporting pass writes next
// to the fragment files, one per batch.
const SidecarName = "_hierarchy.yaml"

// On-disk sidecar shapes. Property values are plain lowercase strings so the
// exporting pass does not need to know our enum encodings; conversion
// happens here with per-field fallbacks.
type (
	sidecarFile struct {
		Version   int             `yaml:"version"`
		Fragments []sidecarRecord `yaml:"fragments"`
	}

	sidecarRecord struct {
		Object     string             `yaml:"object"`
		File       string             `yaml:"file,omitempty"`
		Parents    []string           `yaml:"parents,omitempty"`
		Properties *sidecarProperties `yaml:"properties,omitempty"`
	}

	sidecarProperties struct {
		GeomType     string `yaml:"geom_type,omitempty"`
		Kind         string `yaml:"kind,omitempty"`
		Purpose      string `yaml:"purpose,omitempty"`
		Instanceable *bool  `yaml:"instanceable,omitempty"`
		Hidden       *bool  `yaml:"hidden,omitempty"`
		Active       *bool  `yaml:"active,omitempty"`
		Payload      *bool  `yaml:"payload,omitempty"`
		AssetVersion string `yaml:"asset_version,omitempty"`
		DrawMode     string `yaml:"draw_mode,omitempty"`
	}
)

// ReadSidecar loads and parses the hierarchy sidecar at path.
func ReadSidecar(path string, log *zap.Logger) ([]FragmentRecord, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read hierarchy sidecar: %w", err)
	}
	return ParseSidecar(data, log)
}

// ParseSidecar decodes sidecar data into FragmentRecords. Unknown yaml
// fields are an error (the sidecar is a compatibility contract); unknown
// property values degrade to defaults with a warning so one misauthored
// modifier does not kill the batch.
func ParseSidecar(data []byte, log *zap.Logger) ([]FragmentRecord, []Warning, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file sidecarFile
	if err := dec.Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("failed to decode hierarchy sidecar: %w", err)
	}
	if file.Version != 1 {
		return nil, nil, fmt.Errorf("unsupported hierarchy sidecar version %d", file.Version)
	}

	var (
		records []FragmentRecord
		warns   []Warning
	)
	seen := make(map[string]struct{}, len(file.Fragments))
	for _, raw := range file.Fragments {
		if len(raw.Object) == 0 {
			return nil, nil, fmt.Errorf("hierarchy sidecar record without object name")
		}
		if _, dup := seen[raw.Object]; dup {
			return nil, nil, fmt.Errorf("duplicate hierarchy sidecar record for %q", raw.Object)
		}
		seen[raw.Object] = struct{}{}

		rec := FragmentRecord{
			ObjectName: raw.Object,
			FilePath:   raw.File,
			ParentPath: raw.Parents,
		}
		if raw.Properties != nil {
			props, w := resolveProperties(raw.Object, raw.Properties, log)
			rec.Overrides = &props
			warns = append(warns, w...)
		}
		records = append(records, rec)
	}
	return records, warns, nil
}

func resolveProperties(object string, raw *sidecarProperties, log *zap.Logger) (PropertySet, []Warning) {
	props := DefaultProperties()

	var warns []Warning
	unknown := func(field, value string, err error) {
		log.Warn("Unknown property value in sidecar, using default",
			zap.String("object", object), zap.String("field", field), zap.String("value", value), zap.Error(err))
		warns = append(warns, Warning{
			Kind:    WarnUnknownProperty,
			Object:  object,
			Message: fmt.Sprintf("%s: unknown value %q", field, value),
		})
	}

	if len(raw.GeomType) > 0 {
		if v, err := ParseGeomType(raw.GeomType); err != nil {
			unknown("geom_type", raw.GeomType, err)
		} else {
			props.GeomType = v
		}
	}
	if len(raw.Kind) > 0 {
		if v, err := ParseKind(raw.Kind); err != nil {
			unknown("kind", raw.Kind, err)
		} else {
			props.Kind = v
		}
	}
	if len(raw.Purpose) > 0 {
		if v, err := ParsePurpose(raw.Purpose); err != nil {
			unknown("purpose", raw.Purpose, err)
		} else {
			props.Purpose = v
		}
	}
	if len(raw.DrawMode) > 0 {
		if v, err := ParseDrawMode(raw.DrawMode); err != nil {
			unknown("draw_mode", raw.DrawMode, err)
		} else {
			props.DrawMode = v
		}
	}
	if raw.Instanceable != nil {
		props.Instanceable = *raw.Instanceable
	}
	if raw.Hidden != nil {
		props.Hidden = *raw.Hidden
	}
	if raw.Active != nil {
		props.Active = *raw.Active
	}
	if raw.Payload != nil {
		props.Payload = *raw.Payload
	}
	props.AssetVersion = raw.AssetVersion

	return props, warns
}
