package config

import "github.com/spf13/viper"

func GetDefault() BaseConfig {
	return BaseConfig{
		BaseOutputDir:    "/gws/nopw/j04/primavera5/stream1",
		StandardTimeUnit: "days since 1950-01-01",
		DefaultCalendar:  "360_day",
		ShutdownTimeout:  "10s",

		Log: LogConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		Metadata: MetadataConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "dmt.db",
			},
		},

		Replace: ReplaceConfig{
			MaxDuplicates: 4,
		},

		Agent: AgentConfig{
			PollInterval:      "1h",
			DropDirectory:     "",
			MaxRetrievalBytes: 2 * 1024 * 1024 * 1024 * 1024,
			RetrieveCommand:   "retrieve_request",
		},
	}
}

func setDefaults() {
	defaults := GetDefault()

	viper.SetDefault("base_output_dir", defaults.BaseOutputDir)
	viper.SetDefault("standard_time_unit", defaults.StandardTimeUnit)
	viper.SetDefault("default_calendar", defaults.DefaultCalendar)
	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)

	viper.SetDefault("replace.max_duplicates", defaults.Replace.MaxDuplicates)

	viper.SetDefault("agent.poll_interval", defaults.Agent.PollInterval)
	viper.SetDefault("agent.drop_directory", defaults.Agent.DropDirectory)
	viper.SetDefault("agent.max_retrieval_bytes", defaults.Agent.MaxRetrievalBytes)
	viper.SetDefault("agent.retrieve_command", defaults.Agent.RetrieveCommand)
}
