package config

import "testing"

func TestSetAndGetConfig(t *testing.T) {
	prev := GetConfig()
	t.Cleanup(func() { SetConfig(prev) })

	cfg := Default()
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("GetConfig() did not return the stored configuration")
	}
	if MustGetConfig() != cfg {
		t.Error("MustGetConfig() did not return the stored configuration")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	prev := GetConfig()
	t.Cleanup(func() { SetConfig(prev) })
	SetConfig(nil)

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustGetConfig()
}

func TestReloadConfig_KeepsPreviousOnError(t *testing.T) {
	prev := GetConfig()
	t.Cleanup(func() { SetConfig(prev) })

	cfg := Default()
	SetConfig(cfg)

	path := writeConfig(t, "bad.yaml", "history:\n  backend: postgres\n")
	if err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload error")
	}
	if GetConfig() != cfg {
		t.Error("failed reload must keep the previous configuration")
	}

	good := writeConfig(t, "good.yaml", "export:\n  default_format: json\n")
	if err := ReloadConfig(good); err != nil {
		t.Fatalf("ReloadConfig() failed: %v", err)
	}
	if GetConfig().Export.DefaultFormat != "json" {
		t.Errorf("expected reloaded format json, got %q", GetConfig().Export.DefaultFormat)
	}
}
