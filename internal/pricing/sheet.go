package pricing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
)

// sheetFile is the on-disk pricing layout. Amounts are decimal strings so
// that no price passes through a float.
type sheetFile struct {
	Version string      `yaml:"version"`
	Prices  []priceFile `yaml:"prices"`
	Margins struct {
		Default *marginFile           `yaml:"default"`
		Vendors map[string]marginFile `yaml:"vendors"`
		Models  map[string]marginFile `yaml:"models"`
	} `yaml:"margins"`
}

type priceFile struct {
	Vendor           string `yaml:"vendor"`
	Model            string `yaml:"model"`
	InputPerMillion  string `yaml:"input_per_million"`
	OutputPerMillion string `yaml:"output_per_million"`
}

type marginFile struct {
	Kind     string        `yaml:"kind"`
	Rate     string        `yaml:"rate"`
	Fallback string        `yaml:"fallback"`
	Brackets []bracketFile `yaml:"brackets"`
}

type bracketFile struct {
	FromTokens int64  `yaml:"from_tokens"`
	Rate       string `yaml:"rate"`
}

// Parse decodes a YAML price sheet.
func Parse(data []byte) (domain.PriceSheet, error) {
	var file sheetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.PriceSheet{}, fmt.Errorf("failed to decode price sheet: %w", err)
	}

	sheet := domain.PriceSheet{
		Version: file.Version,
		Prices:  make([]domain.UnitPrice, 0, len(file.Prices)),
		Margins: domain.MarginBook{
			Vendors: make(map[string]domain.MarginPolicy, len(file.Margins.Vendors)),
			Models:  make(map[string]domain.MarginPolicy, len(file.Margins.Models)),
		},
	}

	for i, p := range file.Prices {
		in, err := money.ParseMicros(p.InputPerMillion)
		if err != nil {
			return domain.PriceSheet{}, fmt.Errorf("%w: prices[%d] input_per_million: %w", domain.ErrInvalidPrice, i, err)
		}
		out, err := money.ParseMicros(p.OutputPerMillion)
		if err != nil {
			return domain.PriceSheet{}, fmt.Errorf("%w: prices[%d] output_per_million: %w", domain.ErrInvalidPrice, i, err)
		}
		sheet.Prices = append(sheet.Prices, domain.UnitPrice{
			Vendor:           p.Vendor,
			Model:            p.Model,
			InputPerMillion:  in,
			OutputPerMillion: out,
		})
	}

	if file.Margins.Default != nil {
		policy, err := file.Margins.Default.policy()
		if err != nil {
			return domain.PriceSheet{}, fmt.Errorf("default margin: %w", err)
		}
		sheet.Margins.Default = policy
	}
	for vendor, m := range file.Margins.Vendors {
		policy, err := m.policy()
		if err != nil {
			return domain.PriceSheet{}, fmt.Errorf("margin for vendor %s: %w", vendor, err)
		}
		sheet.Margins.Vendors[vendor] = policy
	}
	for ref, m := range file.Margins.Models {
		policy, err := m.policy()
		if err != nil {
			return domain.PriceSheet{}, fmt.Errorf("margin for model %s: %w", ref, err)
		}
		sheet.Margins.Models[ref] = policy
	}

	return sheet, nil
}

func (m marginFile) policy() (domain.MarginPolicy, error) {
	switch domain.MarginKind(strings.ToLower(m.Kind)) {
	case domain.MarginFixed, "":
		rate, err := parseRate(m.Rate)
		if err != nil {
			return nil, err
		}
		return domain.FixedPercentage{Rate: rate}, nil
	case domain.MarginTiered:
		brackets := make([]domain.Bracket, 0, len(m.Brackets))
		for _, b := range m.Brackets {
			rate, err := parseRate(b.Rate)
			if err != nil {
				return nil, err
			}
			brackets = append(brackets, domain.Bracket{FromTokens: b.FromTokens, Rate: rate})
		}
		return domain.Tiered{Brackets: brackets}, nil
	case domain.MarginDynamic:
		rate, err := parseRate(m.Fallback)
		if err != nil {
			return nil, err
		}
		return domain.Dynamic{Fallback: domain.FixedPercentage{Rate: rate}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidMargin, m.Kind)
	}
}

func parseRate(raw string) (money.RatePPM, error) {
	if raw == "" {
		return 0, nil
	}
	rate, err := money.ParseRate(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: rate %q: %w", domain.ErrInvalidMargin, raw, err)
	}
	return rate, nil
}

// FileSource loads price sheets from a YAML file on every Load, so edits are
// picked up by the next reload.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed price source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) (domain.PriceSheet, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceSheet{}, err
	}
	if s.path == "" {
		return domain.PriceSheet{}, errors.New("pricing file path cannot be empty")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.PriceSheet{}, fmt.Errorf("failed to read pricing file: %w", err)
	}

	sheet, err := Parse(data)
	if err != nil {
		return domain.PriceSheet{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return sheet, nil
}

// Name identifies the source in logs.
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// StaticSource serves a fixed sheet, such as built-in vendor defaults.
type StaticSource struct {
	name  string
	sheet domain.PriceSheet
}

// NewStaticSource creates a source that always returns sheet.
func NewStaticSource(name string, sheet domain.PriceSheet) *StaticSource {
	return &StaticSource{name: name, sheet: sheet}
}

// Load returns the fixed sheet.
func (s *StaticSource) Load(_ context.Context) (domain.PriceSheet, error) {
	return s.sheet, nil
}

// Name identifies the source in logs.
func (s *StaticSource) Name() string {
	return s.name
}
