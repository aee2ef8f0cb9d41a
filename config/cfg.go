package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	StageConfig struct {
		DefaultPrim        string   `yaml:"default_prim" validate:"required"`
		VariantSet         string   `yaml:"variant_set" validate:"required"`
		OutputNameTemplate string   `yaml:"output_name_template"`
		UpAxis             string   `yaml:"up_axis" validate:"oneof=y z"`
		MetersPerUnit      float64  `yaml:"meters_per_unit" validate:"gt=0.0"`
		StartTimeCode      *float64 `yaml:"start_time_code,omitempty"`
		EndTimeCode        *float64 `yaml:"end_time_code,omitempty"`
		FramesPerSecond    *float64 `yaml:"frames_per_second,omitempty"`
	}

	FragmentsConfig struct {
		StripWrapper   bool     `yaml:"strip_wrapper"`
		NestMaterials  bool     `yaml:"nest_materials"`
		WrapperName    string   `yaml:"wrapper_name" validate:"required"`
		MaterialScopes []string `yaml:"material_scopes" validate:"dive,required"`
		Workers        int      `yaml:"workers" validate:"gte=0"`
		Cache          bool     `yaml:"cache"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Stage     StageConfig     `yaml:"stage"`
		Fragments FragmentsConfig `yaml:"fragments"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
