package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rental/backend/internal/domain/tariff"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TierConfig is one row of the tariff table. A nil UpperBound marks the open tier.
type TierConfig struct {
	UpperBound *int64 `mapstructure:"upper_bound" yaml:"upper_bound"`
	Price      string `mapstructure:"price" yaml:"price"`
}

// TariffConfig holds the progressive electricity tariff
type TariffConfig struct {
	// Tiers accepts a TOML table array or a shorthand string, see tiersFromViper
	Tiers    []TierConfig `mapstructure:"-"`
	Scale    int32        `mapstructure:"scale"`
	Rounding string       `mapstructure:"rounding"`
	File     string       `mapstructure:"file"` // optional YAML document overriding the inline table
}

// TariffDocument is the YAML layout accepted by LoadTariffFile.
//
//	scale: 0
//	rounding: largest_remainder
//	tiers:
//	  - {upper_bound: 120, price: "2.10"}
//	  - {upper_bound: 330, price: "3.02"}
//	  - {price: "4.41"}
type TariffDocument struct {
	Scale    *int32       `yaml:"scale"`
	Rounding string       `yaml:"rounding"`
	Tiers    []TierConfig `yaml:"tiers"`
}

// DefaultTiers is the table used when none is configured
func DefaultTiers() []TierConfig {
	b1, b2 := int64(120), int64(330)
	return []TierConfig{
		{UpperBound: &b1, Price: "2.10"},
		{UpperBound: &b2, Price: "3.02"},
		{Price: "4.41"},
	}
}

// LoadTariffFile reads a tariff YAML document
func LoadTariffFile(path string) (*TariffDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tariff file %s: %w", path, err)
	}
	var doc TariffDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tariff file %s: %w", path, err)
	}
	if len(doc.Tiers) == 0 {
		return nil, fmt.Errorf("tariff file %s defines no tiers", path)
	}
	return &doc, nil
}

func (t *TariffConfig) merge(doc *TariffDocument) {
	t.Tiers = doc.Tiers
	if doc.Scale != nil {
		t.Scale = *doc.Scale
	}
	if doc.Rounding != "" {
		t.Rounding = doc.Rounding
	}
}

func (t *TariffConfig) applyDefaults() {
	if len(t.Tiers) == 0 {
		t.Tiers = DefaultTiers()
	}
	if t.Rounding == "" {
		t.Rounding = string(tariff.RoundingLargestRemainder)
	}
}

// Schedule builds the validated tariff schedule. Malformed tables surface as
// tariff.ErrConfiguration.
func (t TariffConfig) Schedule() (*tariff.Schedule, error) {
	tiers := make([]tariff.Tier, 0, len(t.Tiers))
	for i, tc := range t.Tiers {
		price, err := decimal.NewFromString(strings.TrimSpace(tc.Price))
		if err != nil {
			return nil, fmt.Errorf("tier %d: invalid price %q: %w", i+1, tc.Price, tariff.ErrConfiguration)
		}
		if tc.UpperBound == nil {
			tiers = append(tiers, tariff.NewOpenTier(price))
		} else {
			tiers = append(tiers, tariff.NewTier(*tc.UpperBound, price))
		}
	}
	return tariff.NewSchedule(tiers, t.Scale, tariff.Rounding(t.Rounding))
}

// tiersFromViper reads tariff.tiers either as a TOML array of tables or, when
// set from the environment, as the shorthand "120:2.10,330:3.02,*:4.41".
func tiersFromViper(v *viper.Viper) ([]TierConfig, error) {
	raw := v.Get("tariff.tiers")
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		return ParseTierList(s)
	}
	var tiers []TierConfig
	if err := v.UnmarshalKey("tariff.tiers", &tiers); err != nil {
		return nil, fmt.Errorf("invalid tariff.tiers: %w", err)
	}
	return tiers, nil
}

// ParseTierList parses "bound:price" pairs separated by commas. A bound of "*"
// or "inf" marks the open tier.
func ParseTierList(s string) ([]TierConfig, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	tiers := make([]TierConfig, 0, len(parts))
	for _, part := range parts {
		bound, price, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("invalid tariff tier %q: expected bound:price", part)
		}
		tc := TierConfig{Price: strings.TrimSpace(price)}
		switch b := strings.TrimSpace(bound); strings.ToLower(b) {
		case "*", "inf":
		default:
			n, err := strconv.ParseInt(b, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid tariff tier bound %q: %w", b, err)
			}
			tc.UpperBound = &n
		}
		tiers = append(tiers, tc)
	}
	return tiers, nil
}
