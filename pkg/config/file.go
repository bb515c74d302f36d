package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/notify"
	"github.com/charlie0129/battmoji/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		Emoji:              ptr.To(DefaultEmoji),
		ScreenWidth:        ptr.To(1440.0),
		ScreenHeight:       ptr.To(900.0),
		PollInterval:       ptr.To(notify.DefaultPollSchedule),
		AllowNonRootAccess: ptr.To(false),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	Emoji              *string  `json:"emoji,omitempty" yaml:"emoji,omitempty"`
	ScreenWidth        *float64 `json:"screenWidth,omitempty" yaml:"screenWidth,omitempty"`
	ScreenHeight       *float64 `json:"screenHeight,omitempty" yaml:"screenHeight,omitempty"`
	PollInterval       *string  `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
	AllowNonRootAccess *bool    `json:"allowNonRootAccess,omitempty" yaml:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		Emoji:              ptr.To(c.Emoji()),
		ScreenWidth:        ptr.To(c.ScreenWidth()),
		ScreenHeight:       ptr.To(c.ScreenHeight()),
		PollInterval:       ptr.To(c.PollInterval()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
	}

	return rawConfig, nil
}

func (f *File) Emoji() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.Emoji, *defaultFileConfig.Emoji)
}

func (f *File) ScreenWidth() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.ScreenWidth == nil || *f.c.ScreenWidth <= 0 {
		return *defaultFileConfig.ScreenWidth
	}
	return *f.c.ScreenWidth
}

func (f *File) ScreenHeight() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.ScreenHeight == nil || *f.c.ScreenHeight <= 0 {
		return *defaultFileConfig.ScreenHeight
	}
	return *f.c.ScreenHeight
}

func (f *File) PollInterval() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.PollInterval == nil || strings.TrimSpace(*f.c.PollInterval) == "" {
		return *defaultFileConfig.PollInterval
	}
	return *f.c.PollInterval
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.AllowNonRootAccess, *defaultFileConfig.AllowNonRootAccess)
}

func (f *File) SetEmoji(s string) error {
	if f.c == nil {
		panic("config is nil")
	}

	emoji, err := ValidateEmoji(s)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Emoji = &emoji

	return nil
}

func (f *File) SetScreenSize(width, height float64) error {
	if f.c == nil {
		panic("config is nil")
	}

	if width <= 0 || height <= 0 {
		return pkgerrors.Errorf("screen size must be positive, got %vx%v", width, height)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ScreenWidth = &width
	f.c.ScreenHeight = &height

	return nil
}

func (f *File) SetPollInterval(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.PollInterval = &s
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

// Raw returns a copy of the values as stored in the file.
func (f *File) Raw() RawFileConfig {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return *f.c
}

func (f *File) Path() string {
	return f.filepath
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// An empty file is a valid (empty) config, so read it whole instead of
	// streaming through json.Decoder.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if conf.Emoji != nil {
		if _, err := ValidateEmoji(*conf.Emoji); err != nil {
			logrus.WithError(err).Warnf("ignoring invalid emoji in %s", f.filepath)
			conf.Emoji = nil
		}
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"emoji":              f.Emoji(),
		"screenWidth":        f.ScreenWidth(),
		"screenHeight":       f.ScreenHeight(),
		"pollInterval":       f.PollInterval(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
