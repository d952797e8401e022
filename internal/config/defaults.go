package config

const (
	defaultWorkspaceDir       = "~/.local/share/lavra/cases"
	defaultLogDir             = "~/.local/share/lavra/logs"
	defaultAPIBind            = "127.0.0.1:7823"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 15
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMTitle           = "Lavra Sentence Drafting"
	defaultLLMTimeoutSeconds  = 120
	defaultWhisperXModel      = "large-v3-turbo"
	defaultWhisperXLanguage   = "pt"
	defaultWhisperXVADMethod  = "silero"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			Language:  defaultWhisperXLanguage,
			VADMethod: defaultWhisperXVADMethod,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
