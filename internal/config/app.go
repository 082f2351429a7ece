package config

type AppConfig struct {
	Server ServerConfig
	Sync   SyncConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	syncCfg, err := LoadSync()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Sync:   syncCfg,
		Log:    logCfg,
	}, nil
}
