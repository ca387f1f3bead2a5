package config

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Slack         SlackConfig
	Turso         TursoConfig
	Redis         RedisConfig
	PubSub        PubSubConfig
}

// SlackConfig enables match announcements when Token and ChannelID are set.
type SlackConfig struct {
	Token     string
	ChannelID string
	DryRun    bool
}

func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

// TursoConfig selects a remote database when PrimaryURL is set.
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

// RedisConfig enables the scoreboard report channel when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	Channel  string
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// PubSubConfig enables event publication when ProjectID is set.
type PubSubConfig struct {
	ProjectID string
	Topic     string
}

func (c PubSubConfig) Enabled() bool {
	return c.ProjectID != ""
}
