package configuration

type Configuration struct {
	HttpAddr          string `usage:"HTTP address"`
	EnableCompression bool   `usage:"gzip responses when the client accepts it"`
	LogLevel          string `usage:"log level: debug | info | warn | error"`
	LogFormat         string `usage:"log format: json | console"`
	MetricsPath       string `usage:"path to expose prometheus metrics, empty to disable"`
	IgnoreClears      bool   `usage:"report clears without hiding the components they shadow"`
	GCTargetBytes     uint64 `usage:"store size to keep after periodic garbage collection, 0 to disable"`
	GCInterval        string `usage:"how often to run garbage collection"`
	MaxRowsPerChunk   int    `usage:"split written batches into chunks of at most this many rows, 0 for no limit"`
	Version           bool   `usage:"show version and exit"`
	ShowConfig        bool   `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:          "127.0.0.1:8080",
		EnableCompression: true,
		LogLevel:          "info",
		LogFormat:         "json",
		MetricsPath:       "/metrics",
		GCTargetBytes:     0,
		GCInterval:        "30s",
		MaxRowsPerChunk:   4096,
	}
}
