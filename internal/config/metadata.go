package config

// MetadataConfig holds metadata store configuration
type MetadataConfig struct {
	Type   string       `mapstructure:"type"   yaml:"type"`
	SQLite SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}
