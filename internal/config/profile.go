package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultProfile is used when MONITOR_ENV is not set.
const DefaultProfile = "test"

// Fingerprint modes.
const (
	ModeSHA     = "sha"
	ModeRecords = "records"
)

// Table formats for records mode.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

const (
	defaultHeaderMarker = "| Company | Role | Location"
	defaultMaxRecords   = 5
)

// Profile is a named bundle of source and display settings.
type Profile struct {
	Name         string        `validate:"required"`
	SourceURL    string        `validate:"required,url"`
	TargetURL    string        `validate:"required,url"`
	Description  string        `validate:"required"`
	Interval     time.Duration `validate:"gt=0"`
	Mode         string        `validate:"oneof=sha records"`
	Private      bool
	TableFormat  string `validate:"omitempty,oneof=markdown html"`
	HeaderMarker string
	MaxRecords   int `validate:"gte=0"`
}

// BuiltinProfiles returns the profiles compiled into the binary.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		"test": {
			Name:        "test",
			SourceURL:   "https://api.github.com/repos/jordanconklin/test/contents/README.md",
			TargetURL:   "https://github.com/jordanconklin/test",
			Description: "Test Repository",
			Interval:    20 * time.Second,
			Mode:        ModeSHA,
			Private:     true,
			MaxRecords:  defaultMaxRecords,
		},
		"prod": {
			Name:         "prod",
			SourceURL:    "https://api.github.com/repos/SimplifyJobs/New-Grad-Positions/contents/README.md",
			TargetURL:    "https://github.com/SimplifyJobs/New-Grad-Positions",
			Description:  "New Grad Positions",
			Interval:     60 * time.Second,
			Mode:         ModeRecords,
			TableFormat:  FormatMarkdown,
			HeaderMarker: defaultHeaderMarker,
			MaxRecords:   defaultMaxRecords,
		},
	}
}

// Format returns the table format, defaulting to markdown.
func (p Profile) Format() string {
	if p.TableFormat == "" {
		return FormatMarkdown
	}
	return p.TableFormat
}

// Marker returns the header marker, defaulting to the company/role/location header.
func (p Profile) Marker() string {
	if p.HeaderMarker == "" {
		return defaultHeaderMarker
	}
	return p.HeaderMarker
}

// Validate checks profile fields.
func (p Profile) Validate() error {
	err := validator.New().Struct(p)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("%s failed rule '%s'", e.Field(), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid profile %q: %s", p.Name, strings.Join(msgs, "; "))
}

// profileFile is the on-disk YAML layout.
type profileFile struct {
	Profiles map[string]profileEntry `yaml:"profiles"`
}

type profileEntry struct {
	URL           string `yaml:"url"`
	CheckInterval int    `yaml:"check_interval"` // seconds
	TargetURL     string `yaml:"target_url"`
	Description   string `yaml:"description"`
	Mode          string `yaml:"mode"`
	Private       bool   `yaml:"private"`
	TableFormat   string `yaml:"table_format"`
	HeaderMarker  string `yaml:"header_marker"`
	MaxRecords    *int   `yaml:"max_records"`
}

// LoadProfiles reads profiles from a YAML file.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file %s: %w", path, err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates YAML profile definitions.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}

	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]Profile, len(names))
	for _, name := range names {
		e := f.Profiles[name]
		p := Profile{
			Name:         name,
			SourceURL:    e.URL,
			TargetURL:    e.TargetURL,
			Description:  e.Description,
			Interval:     time.Duration(e.CheckInterval) * time.Second,
			Mode:         e.Mode,
			Private:      e.Private,
			TableFormat:  e.TableFormat,
			HeaderMarker: e.HeaderMarker,
			MaxRecords:   defaultMaxRecords,
		}
		if p.Mode == "" {
			p.Mode = ModeSHA
		}
		if e.MaxRecords != nil {
			p.MaxRecords = *e.MaxRecords
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}
