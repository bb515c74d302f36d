package config

type Config interface {
	Emoji() string
	ScreenWidth() float64
	ScreenHeight() float64
	PollInterval() string
	AllowNonRootAccess() bool

	SetEmoji(string) error
	SetScreenSize(width, height float64) error
	SetPollInterval(string)
	SetAllowNonRootAccess(bool)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
