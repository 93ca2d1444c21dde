package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/streamchat/internal/models"
)

func TestRootCommand_Help(t *testing.T) {
	if rootCmd.Use != "streamchat [prompt]" {
		t.Errorf("Expected use 'streamchat [prompt]', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" || rootCmd.Long == "" {
		t.Error("descriptions should not be empty")
	}
	if rootCmd.Args == nil {
		t.Error("Args validation should be configured")
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"chat": false, "serve": false, "config": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommand_Flags(t *testing.T) {
	for _, name := range []string{"url", "fps", "verbose", "log-file"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag --%s missing", name)
		}
	}
	for _, name := range []string{"output", "file", "copy", "raw", "version"} {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s missing", name)
		}
	}
	if f := rootCmd.PersistentFlags().ShorthandLookup("u"); f == nil || f.Name != "url" {
		t.Error("-u should be the shorthand for --url")
	}
}

func TestReadPrompt(t *testing.T) {
	resetFlags(t)

	t.Run("argument", func(t *testing.T) {
		prompt, ok, err := readPrompt(nil, []string{"hello"})
		if err != nil || !ok || prompt != "hello" {
			t.Errorf("readPrompt() = %q, %v, %v", prompt, ok, err)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		prompt, ok, err := readPrompt(strings.NewReader("from pipe"), []string{"ignored"})
		if err != nil || !ok || prompt != "from pipe" {
			t.Errorf("readPrompt() = %q, %v, %v", prompt, ok, err)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.md")
		if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
			t.Fatal(err)
		}
		fileFlag = path
		defer func() { fileFlag = "" }()

		prompt, ok, err := readPrompt(strings.NewReader("stdin"), nil)
		if err != nil || !ok || prompt != "from file" {
			t.Errorf("readPrompt() = %q, %v, %v", prompt, ok, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		fileFlag = filepath.Join(t.TempDir(), "nope.md")
		defer func() { fileFlag = "" }()

		if _, _, err := readPrompt(nil, nil); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("nothing", func(t *testing.T) {
		if _, ok, _ := readPrompt(nil, nil); ok {
			t.Error("no input should report ok=false")
		}
	})
}

func TestLoadSettings(t *testing.T) {
	resetFlags(t)
	t.Setenv("STREAMCHAT_HOME", t.TempDir())
	t.Setenv("STREAMCHAT_URL", "")

	var stderr bytes.Buffer
	cfg, err := loadSettings(&stderr)
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if cfg.ServerURL != models.DefaultServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}

	urlFlag = "example.com:9000"
	fpsFlag = 60
	verboseFlag = true
	cfg, err = loadSettings(&stderr)
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if cfg.ServerURL != "ws://example.com:9000"+models.ChatPath {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.FPS != 60 || !cfg.Verbose {
		t.Errorf("flags not applied: fps=%d verbose=%v", cfg.FPS, cfg.Verbose)
	}

	urlFlag = "ftp://bad"
	if _, err := loadSettings(&stderr); err == nil {
		t.Error("expected error for non-websocket URL")
	}
}

func TestRootCommand_Version(t *testing.T) {
	resetFlags(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		_ = rootCmd.Flags().Set("version", "false")
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "streamchat "+Version) {
		t.Errorf("version output = %q", out.String())
	}
}
