package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/tinytune/internal/media"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to tinytune! Let's configure your media folder.")
	fmt.Println()

	cfg := DefaultConfig()
	if wd, err := os.Getwd(); err == nil {
		cfg.MediaDir = wd
	}

	// 1. Media folder.
	dirPrompt := promptui.Prompt{
		Label:   "Media folder",
		Default: cfg.MediaDir,
		Validate: func(s string) error {
			info, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", s)
			}
			return nil
		},
	}
	mediaDir, err := dirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("media folder: %w", err)
	}
	cfg.MediaDir = mediaDir

	// 2. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 3. Default order.
	sorts := media.SortNames()
	sortPrompt := promptui.Select{
		Label:     "Default order",
		Items:     sorts,
		CursorPos: indexOf(sorts, cfg.DefaultSort),
	}
	_, cfg.DefaultSort, err = sortPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sort selection: %w", err)
	}

	// 4. Watching.
	watchPrompt := promptui.Select{
		Label: "Rescan automatically when files change",
		Items: []string{"yes", "no"},
	}
	watchIdx, _, err := watchPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("watch selection: %w", err)
	}
	cfg.Watch = watchIdx == 0

	// 5. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Exclude = append(append([]string{}, DefaultExcludes...), splitAndTrim(excludeStr)...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}

func indexOf(items []string, want string) int {
	for i, it := range items {
		if it == want {
			return i
		}
	}
	return 0
}
