package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			WebhookPath: "/api/chatwoot",
		},
		Chatwoot: ChatwootConfig{
			CheckRemoteStatus: false,
		},
		LLM: LLMConfig{
			APIBase:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			MaxTokens:         400,
			Temperature:       0.3,
			TimeoutSeconds:    60,
			RequestsPerMinute: 120,
			Burst:             20,
		},
		Handoff: HandoffConfig{
			Backend: "memory",
			DBPath:  "~/.greywaterbot/handoff.db",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "greywaterbot:",
			},
		},
		Dispatch: DispatchConfig{
			CardDelayMs:               800,
			FollowupDelayMs:           1500,
			FollowupAfterCardsDelayMs: 2500,
		},
		Site: SiteConfig{
			BaseURL: "https://greywater-website.vercel.app",
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}
