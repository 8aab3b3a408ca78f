package configuration

type Configuration struct {
	HttpAddr   string `usage:"HTTP address"`
	Store      string `usage:"storage backend: memory, bolt, sqlite or postgres"`
	Dir        string `usage:"data directory for file backed stores"`
	DSN        string `usage:"data source name for sql stores"`
	Metrics    bool   `usage:"serve prometheus metrics on /metrics"`
	Version    bool   `usage:"show version and exit"`
	ShowBanner bool   `usage:"show big banner"`
	ShowConfig bool   `usage:"print config"`
}

func Default() *Configuration {
	return &Configuration{
		HttpAddr:   "127.0.0.1:8080",
		Store:      "bolt",
		Dir:        "data",
		Metrics:    true,
		ShowBanner: true,
	}
}
