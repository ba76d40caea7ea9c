package config

const (
	defaultSourceDir     = "/media/source"
	defaultTargetDir     = "/media/library"
	defaultLogDir        = "~/.local/share/medialink/logs"
	defaultAPIBind       = "127.0.0.1:8764"
	defaultScanInterval  = 300
	defaultWorkerCount   = 2
	defaultQueueCapacity = 256
	defaultTMDBBaseURL   = "https://api.themoviedb.org/3"
	defaultTMDBLanguage  = "en-US"
	defaultTMDBWorkers   = 10
	defaultLLMBaseURL    = "https://api.openai.com/v1"
	defaultLLMModel      = "gpt-4o-mini"
	defaultLLMTimeout    = 30
	defaultLLMCacheSize  = 128
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

var defaultVideoExtensions = []string{".mkv", ".mp4", ".avi", ".mov", ".ts", ".m2ts", ".wmv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			TargetDir: defaultTargetDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Scanner: Scanner{
			IntervalSeconds:  defaultScanInterval,
			VideoExtensions:  append([]string(nil), defaultVideoExtensions...),
			MinFileSizeMB:    0,
			ExcludeTargetDir: true,
			FollowSymlinks:   false,
		},
		Workers: Workers{
			Count:         defaultWorkerCount,
			QueueCapacity: defaultQueueCapacity,
		},
		TMDB: TMDB{
			Enabled:     true,
			BaseURL:     defaultTMDBBaseURL,
			Language:    defaultTMDBLanguage,
			Concurrency: defaultTMDBWorkers,
		},
		LLM: LLM{
			Enabled:        true,
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
			CacheSize:      defaultLLMCacheSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
