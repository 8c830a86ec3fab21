package config

const (
	defaultDataRoot  = "~/.local/share/stickerd"
	defaultLogDir    = "~/.local/share/stickerd/logs"
	defaultAPIBind   = "127.0.0.1:7465"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataRoot: defaultDataRoot,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
