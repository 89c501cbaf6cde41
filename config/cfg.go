package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"csscover/bigraph"
	"csscover/common"
	"csscover/genetic"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	OptimizerConfig struct {
		PopulationSize       int                 `yaml:"population_size" validate:"min=2"`
		EliteCount           int                 `yaml:"elite_count" validate:"gte=0,ltefield=PopulationSize"`
		MaxGenerations       int                 `yaml:"max_generations" validate:"gte=0"`
		StagnationLimit      int                 `yaml:"stagnation_limit" validate:"min=1"`
		CrossoverProbability float64             `yaml:"crossover_probability" validate:"gte=0,lte=1"`
		MutationProbability  float64             `yaml:"mutation_probability" validate:"gte=0,lte=1"`
		MergeProbability     float64             `yaml:"merge_probability" validate:"gte=0,lte=1"`
		MutationMode         common.MutationMode `yaml:"mutation_mode" validate:"gte=0"`
		Workers              int                 `yaml:"workers" validate:"min=1"`
		Seed                 uint64              `yaml:"seed"`
		TimeLimit            time.Duration       `yaml:"time_limit" validate:"gte=0s"`
	}

	CostConfig struct {
		Compressor common.Compressor `yaml:"compressor" validate:"gte=0"`
		Level      int               `yaml:"level" validate:"min=0,max=9"`
	}

	OutputConfig struct {
		PreserveAtRules bool `yaml:"preserve_at_rules"`
		SortLabels      bool `yaml:"sort_labels"`
		Compact         bool `yaml:"compact"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Optimizer OptimizerConfig `yaml:"optimizer"`
		Cost      CostConfig      `yaml:"cost"`
		Output    OutputConfig    `yaml:"output"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

// Genetic converts optimizer section to search parameters.
func (conf *OptimizerConfig) Genetic() genetic.Config {
	return genetic.Config{
		PopulationSize:       conf.PopulationSize,
		EliteCount:           conf.EliteCount,
		MaxGenerations:       conf.MaxGenerations,
		StagnationLimit:      conf.StagnationLimit,
		CrossoverProbability: conf.CrossoverProbability,
		MutationProbability:  conf.MutationProbability,
		MergeProbability:     conf.MergeProbability,
		MutationMode:         conf.MutationMode,
		Workers:              conf.Workers,
		Seed:                 conf.Seed,
	}
}

// Pricer returns cost function for the graph.
func (conf *CostConfig) Pricer() (bigraph.Pricer, error) {
	return bigraph.NewPricer(conf.Compressor, conf.Level)
}

// Terminator returns string written after every optimized rule.
func (conf *OutputConfig) Terminator() string {
	if conf.Compact {
		return ""
	}
	return bigraph.DefaultTerminator
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
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
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
