package brand

import (
	"testing"
)

func TestGet(t *testing.T) {
	b := Get()
	if b.Name == "" {
		t.Error("Brand name should not be empty")
	}
	if BinaryName != "chainctl" {
		t.Errorf("BinaryName = %q, expected chainctl", BinaryName)
	}
	if Version == "" {
		t.Error("Global Version should be initialized (to dev default)")
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "")
	t.Setenv(ConfigEnvPrefix+"_PREFIX", "")
	if got := ConfigPath(); got != "/etc/chainreg/chainreg.hcl" {
		t.Errorf("ConfigPath() = %q", got)
	}

	t.Setenv(ConfigEnvPrefix+"_PREFIX", "/opt/chainreg")
	if got := ConfigPath(); got != "/opt/chainreg/config/chainreg.hcl" {
		t.Errorf("ConfigPath() with prefix = %q", got)
	}

	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "/srv/cfg")
	if got := ConfigPath(); got != "/srv/cfg/chainreg.hcl" {
		t.Errorf("ConfigPath() with config dir = %q", got)
	}
}
