package config

const (
	defaultDataDir           = "~/.local/share/jobsync"
	defaultLogDir            = "~/.local/share/jobsync/logs"
	defaultMediaDir          = "~/.local/share/jobsync/media"
	defaultRequestTimeout    = 10
	defaultRetryAttempts     = 3
	defaultRetryDelaySeconds = 1
	defaultVideoRetryCap     = 3
	defaultPollInterval      = 30
	defaultLogFormat         = "text"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			MediaDir: defaultMediaDir,
		},
		API: API{
			RequestTimeout: defaultRequestTimeout,
		},
		Sync: Sync{
			RetryAttempts:     defaultRetryAttempts,
			RetryDelaySeconds: defaultRetryDelaySeconds,
			VideoRetryCap:     defaultVideoRetryCap,
			PollInterval:      defaultPollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
