// Package prefs handles user preferences stored under ~/.ads.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// PrefsDir is the directory under $HOME holding preferences and logs.
	PrefsDir = ".ads"
	// PrefsFile is the preferences file name.
	PrefsFile = "ads2bibdesk.yml"
	// LogFile is the log file name.
	LogFile = "ads2bibdesk.log"
	// EnvFile is an optional dotenv file that may carry ADS_DEV_KEY.
	EnvFile = ".env"
)

// Prefs represents the preferences file. Missing keys fall back to the
// defaults written on first run.
type Prefs struct {
	// ADSMirror is the ADS web frontend host used to build link-gateway URLs.
	ADSMirror string `yaml:"ads_mirror"`
	// ADSToken is the personal ADS API token. An empty value defers to the
	// ADS_DEV_KEY environment variable (possibly loaded from ~/.ads/.env).
	ADSToken string `yaml:"ads_token"`

	Proxy   ProxyPrefs   `yaml:"proxy"`
	Options OptionsPrefs `yaml:"options"`
}

// ProxyPrefs configures the optional SSH relay used when publisher
// downloads fail from the local network.
type ProxyPrefs struct {
	SSHUser   string `yaml:"ssh_user"`
	SSHServer string `yaml:"ssh_server"`
	SSHPort   int    `yaml:"ssh_port"`
}

// OptionsPrefs holds feature toggles.
type OptionsPrefs struct {
	DownloadPDF bool `yaml:"download_pdf"`
	AlertSound  bool `yaml:"alert_sound"`
	Debug       bool `yaml:"debug"`
}

// Defaults returns the preferences written on first run.
func Defaults() *Prefs {
	return &Prefs{
		ADSMirror: "ui.adsabs.harvard.edu",
		Proxy: ProxyPrefs{
			SSHPort: 22,
		},
		Options: OptionsPrefs{
			DownloadPDF: true,
			AlertSound:  true,
		},
	}
}

// Dir returns the preferences directory path.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return PrefsDir
	}
	return filepath.Join(home, PrefsDir)
}

// Path returns the preferences file path.
func Path() string {
	return filepath.Join(Dir(), PrefsFile)
}

// LogPath returns the log file path.
func LogPath() string {
	return filepath.Join(Dir(), LogFile)
}

// Load reads preferences from the given path, creating the file with
// defaults if it does not exist yet.
func Load(path string) (*Prefs, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		p := Defaults()
		if err := p.Save(path); err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preferences: %w", err)
	}

	p := Defaults()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing preferences: %w", err)
	}
	return p, nil
}

// Save writes preferences to the given path, creating parent directories.
func (p *Prefs) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating preferences directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

// Token returns the API token, falling back to the ADS_DEV_KEY environment
// variable. A ~/.ads/.env file is loaded first so tokens can be kept out of
// the preferences file.
func (p *Prefs) Token() string {
	if p.ADSToken != "" {
		return p.ADSToken
	}
	_ = godotenv.Load(filepath.Join(Dir(), EnvFile))
	return os.Getenv("ADS_DEV_KEY")
}

// ProxyConfigured reports whether the SSH proxy settings are usable.
func (p *Prefs) ProxyConfigured() bool {
	return p.Proxy.SSHUser != "" && p.Proxy.SSHServer != ""
}

// GatewayURL returns the ADS link-gateway base URL for the configured mirror.
func (p *Prefs) GatewayURL() string {
	return "https://" + p.ADSMirror + "/link_gateway"
}
