package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// News source configuration
	NewsSource   string
	NewsAPIKey   string
	NewsAPIUrl   string
	NewsPageSize int

	// Application configuration
	Port              string
	WatchlistFile     string
	WorkerCount       int
	SchedulerInterval int
	SourceTimeout     int
	ExtractContent    bool
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
