package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// BaseConfig is loaded once at startup and passed by reference into every
// component; none of the packages below read viper directly.
type BaseConfig struct {
	// BaseOutputDir is the root of the published-output workspace that
	// holds the canonical DRS tree (or symbolic links into the stream
	// workspaces).
	BaseOutputDir string `mapstructure:"base_output_dir" yaml:"base_output_dir"`

	// StandardTimeUnit is the reference unit that request windows and
	// database-wide comparisons are expressed in.
	StandardTimeUnit string `mapstructure:"standard_time_unit" yaml:"standard_time_unit"`

	// DefaultCalendar applies when a submission does not name one.
	DefaultCalendar string `mapstructure:"default_calendar" yaml:"default_calendar"`

	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`
	Replace  ReplaceConfig  `mapstructure:"replace"  yaml:"replace"`
	Agent    AgentConfig    `mapstructure:"agent"    yaml:"agent"`
}

type ReplaceConfig struct {
	// MaxDuplicates bounds the ordinal suffixes tried when a replaced
	// file's (name, incoming directory) pair already exists in the ledger.
	MaxDuplicates int `mapstructure:"max_duplicates" yaml:"max_duplicates"`
}

type AgentConfig struct {
	PollInterval string `mapstructure:"poll_interval" yaml:"poll_interval"`

	// DropDirectory is watched for validated submission metadata files.
	DropDirectory string `mapstructure:"drop_directory" yaml:"drop_directory"`

	// MaxRetrievalBytes caps the size of a retrieval request the agent
	// will start automatically.
	MaxRetrievalBytes int64 `mapstructure:"max_retrieval_bytes" yaml:"max_retrieval_bytes"`

	// RetrieveCommand is run with the retrieval request id appended to
	// fetch data back from tape.
	RetrieveCommand string `mapstructure:"retrieve_command" yaml:"retrieve_command"`
}

func Load() (*BaseConfig, error) {
	cfg := &BaseConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}
