package playback

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/franz/clipbox/internal/util"
)

// Player opens a video file outside the process and reports which player
// handled it
type Player interface {
	Launch(path string) (string, error)
}

// Launcher starts the configured player, or the system default handler
type Launcher struct {
	command string   // configured player command, empty for system default
	args    []string // additional arguments for the player
}

// NewLauncher creates a Launcher. An empty command uses the OS default.
func NewLauncher(command string, args []string) *Launcher {
	return &Launcher{command: command, args: args}
}

// Launch starts the player without waiting for it to exit
func (l *Launcher) Launch(path string) (string, error) {
	if l.command != "" {
		return l.launchConfigured(path)
	}
	return "default", l.launchDefault(path)
}

// Name is the player recorded in play history
func (l *Launcher) Name() string {
	if l.command == "" {
		return "default"
	}
	base := strings.ToLower(filepath.Base(l.command))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (l *Launcher) launchConfigured(path string) (string, error) {
	args := append([]string{}, l.args...)

	// macOS GUI apps are usually not on PATH
	if runtime.GOOS == "darwin" {
		if _, err := exec.LookPath(l.command); err != nil {
			cmdArgs := []string{"-a", l.command}
			if len(args) > 0 {
				cmdArgs = append(cmdArgs, "--args")
				cmdArgs = append(cmdArgs, args...)
			}
			cmdArgs = append(cmdArgs, path)
			util.DebugLog("Launching with open %v", cmdArgs)
			return l.Name(), exec.Command("open", cmdArgs...).Start()
		}
	}

	if _, err := exec.LookPath(l.command); err != nil {
		return "", fmt.Errorf("player %s not found: %w", l.command, err)
	}

	args = append(args, path)
	util.DebugLog("Launching %s %v", l.command, args)
	return l.Name(), exec.Command(l.command, args...).Start()
}

func (l *Launcher) launchDefault(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	util.DebugLog("Launching with system default (%s)", runtime.GOOS)
	return cmd.Start()
}
