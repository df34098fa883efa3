package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "ads2bibdesk.yml")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ADSMirror != "ui.adsabs.harvard.edu" {
		t.Errorf("ADSMirror = %q", p.ADSMirror)
	}
	if !p.Options.DownloadPDF || !p.Options.AlertSound {
		t.Errorf("default options = %+v", p.Options)
	}
	if p.Proxy.SSHPort != 22 {
		t.Errorf("SSHPort = %d, want 22", p.Proxy.SSHPort)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("preferences file not written: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads2bibdesk.yml")

	p := Defaults()
	p.ADSMirror = "ads.mirror.example.org"
	p.ADSToken = "secret"
	p.Proxy = ProxyPrefs{SSHUser: "alice", SSHServer: "login.example.edu", SSHPort: 2222}
	p.Options.DownloadPDF = false
	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ADSMirror != p.ADSMirror || got.ADSToken != p.ADSToken {
		t.Errorf("got %+v, want %+v", got, p)
	}
	if got.Proxy != p.Proxy {
		t.Errorf("Proxy = %+v, want %+v", got.Proxy, p.Proxy)
	}
	if got.Options.DownloadPDF {
		t.Error("DownloadPDF = true after round trip, want false")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads2bibdesk.yml")
	partial := "ads_token: abc123\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ADSToken != "abc123" {
		t.Errorf("ADSToken = %q", p.ADSToken)
	}
	if p.ADSMirror != "ui.adsabs.harvard.edu" {
		t.Errorf("missing key did not fall back to default: %q", p.ADSMirror)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads2bibdesk.yml")
	if err := os.WriteFile(path, []byte("proxy: [not a map\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load succeeded on invalid YAML")
	}
}

func TestTokenPrecedence(t *testing.T) {
	t.Setenv("ADS_DEV_KEY", "env-token")

	p := Defaults()
	if got := p.Token(); got != "env-token" {
		t.Errorf("Token = %q, want env fallback", got)
	}

	p.ADSToken = "file-token"
	if got := p.Token(); got != "file-token" {
		t.Errorf("Token = %q, want preferences value to win", got)
	}
}

func TestProxyConfigured(t *testing.T) {
	p := Defaults()
	if p.ProxyConfigured() {
		t.Error("ProxyConfigured = true for defaults")
	}
	p.Proxy.SSHUser = "alice"
	if p.ProxyConfigured() {
		t.Error("ProxyConfigured = true without a server")
	}
	p.Proxy.SSHServer = "login.example.edu"
	if !p.ProxyConfigured() {
		t.Error("ProxyConfigured = false with user and server set")
	}
}

func TestGatewayURL(t *testing.T) {
	p := Defaults()
	want := "https://ui.adsabs.harvard.edu/link_gateway"
	if got := p.GatewayURL(); got != want {
		t.Errorf("GatewayURL = %q, want %q", got, want)
	}
}
