package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/crongame/internal/config"
	"github.com/verte-zerg/crongame/internal/model"
	"github.com/verte-zerg/crongame/internal/store"
)

func sampleConfig() model.SessionConfig {
	return model.SessionConfig{
		Players: []model.Player{
			{Name: "Ana", Color: "#ff0000"},
			{Name: "Bo", Color: "#00ff00"},
		},
		Settings: model.RoundSettings{DurationSeconds: 45, Mode: model.CountUp},
	}
}

func TestWriteSessionConfigFormats(t *testing.T) {
	cases := []struct {
		format string
		want   []string
	}{
		{format: "json", want: []string{`"durationSeconds": 45`, `"mode": "countup"`, `"name": "Ana"`}},
		{format: "yaml", want: []string{"duration-seconds: 45", "mode: countup", "name: Ana"}},
		{format: "toml", want: []string{"[[players]]", "[settings]", `mode = "countup"`}},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		if err := writeSessionConfig(&buf, sampleConfig(), tc.format); err != nil {
			t.Fatalf("%s: %v", tc.format, err)
		}
		for _, want := range tc.want {
			if !strings.Contains(buf.String(), want) {
				t.Fatalf("%s output missing %q:\n%s", tc.format, want, buf.String())
			}
		}
	}
	if err := writeSessionConfig(&bytes.Buffer{}, sampleConfig(), "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		got, err := confirm(strings.NewReader(input), &out, "? ")
		if err != nil {
			t.Fatalf("confirm(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("confirm(%q) = %v, want %v", input, got, want)
		}
		if out.String() != "? " {
			t.Fatalf("expected prompt, got %q", out.String())
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" Ana, Bo ,,Cy")
	want := []string{"Ana", "Bo", "", "Cy"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if splitList("  ") != nil {
		t.Fatalf("expected nil for blank input")
	}
}

func TestResolvePrefillUsesStoredConfig(t *testing.T) {
	st, err := store.OpenBolt(filepath.Join(t.TempDir(), "crongame.bolt"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	if err := store.SaveConfig(context.Background(), st, sampleConfig()); err != nil {
		t.Fatalf("save: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetContext(context.Background())
	got, err := resolvePrefill(cmd, config.FileConfig{}, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got.Players) != 2 || got.Players[0].Name != "Ana" || got.Settings.DurationSeconds != 45 {
		t.Fatalf("expected stored config, got %+v", got)
	}

	if err := cmd.Flags().Set("duration", "90"); err != nil {
		t.Fatalf("set duration: %v", err)
	}
	if err := cmd.Flags().Set("names", "Xi,Yu,Zoe"); err != nil {
		t.Fatalf("set names: %v", err)
	}
	got, err = resolvePrefill(cmd, config.FileConfig{}, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("resolve with flags: %v", err)
	}
	if got.Settings.DurationSeconds != 90 || got.Settings.Mode != model.CountUp {
		t.Fatalf("expected flag duration over stored mode, got %+v", got.Settings)
	}
	if len(got.Players) != 3 || got.Players[2].Name != "Zoe" {
		t.Fatalf("expected roster from --names, got %+v", got.Players)
	}
}

func TestResolvePrefillDefaults(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetContext(context.Background())
	players := 3
	mode := "up"
	fileCfg := config.FileConfig{Round: config.RoundConfig{Players: &players, Mode: &mode}}
	applyIntConfig(cmd, "players", &runPlayers, fileCfg.Round.Players)
	applyStringConfig(cmd, "mode", &runMode, fileCfg.Round.Mode)
	got, err := resolvePrefill(cmd, fileCfg, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got.Players) != 3 || got.Players[1].Name != model.DefaultPlayerName(2) {
		t.Fatalf("unexpected roster: %+v", got.Players)
	}
	if got.Settings.DurationSeconds != 60 || got.Settings.Mode != model.CountUp {
		t.Fatalf("unexpected settings: %+v", got.Settings)
	}
}
