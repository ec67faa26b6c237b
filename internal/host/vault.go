package host

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/agentx-labs/brat/internal/branding"
	"github.com/agentx-labs/brat/internal/manifest"
	"github.com/agentx-labs/brat/internal/platform"
	"go.uber.org/zap"
)

const (
	configDirName      = ".obsidian"
	pluginsDirName     = "plugins"
	themesDirName      = "themes"
	enabledPluginsFile = "community-plugins.json"
	reloadTimeout      = 30 * time.Second
)

// VaultHost installs packages into a vault directory on disk.
type VaultHost struct {
	root          string
	reloadCommand []string
	logger        *zap.Logger

	// mu guards community-plugins.json.
	mu sync.Mutex
}

var _ Host = (*VaultHost)(nil)

// VaultOption configures a VaultHost.
type VaultOption func(*VaultHost)

// WithReloadCommand runs command (split on whitespace) after each install
// with BRAT_PACKAGE_ID set. Without it, reload is a logged no-op.
func WithReloadCommand(command string) VaultOption {
	return func(h *VaultHost) {
		h.reloadCommand = strings.Fields(command)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) VaultOption {
	return func(h *VaultHost) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewVaultHost returns a host rooted at the vault directory root.
func NewVaultHost(root string, opts ...VaultOption) (*VaultHost, error) {
	if root == "" {
		return nil, fmt.Errorf("vault path is not configured (set %s or `%s config set vault <path>`)",
			branding.EnvVar("VAULT"), branding.CLIName())
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening vault %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault %s is not a directory", root)
	}
	h := &VaultHost{root: root, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// PluginDir returns the directory of an installed package.
func (h *VaultHost) PluginDir(packageID string) string {
	return filepath.Join(h.root, configDirName, pluginsDirName, packageID)
}

// ThemeDir returns the directory of an installed theme.
func (h *VaultHost) ThemeDir(name string) string {
	return filepath.Join(h.root, configDirName, themesDirName, name)
}

func (h *VaultHost) WriteExtensionFiles(ctx context.Context, packageID string, files map[string][]byte) error {
	if err := ValidateName(packageID); err != nil {
		return fmt.Errorf("package id: %w: %w", ErrHostWriteFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := replaceDir(h.PluginDir(packageID), files); err != nil {
		return fmt.Errorf("%w: %w", ErrHostWriteFailed, err)
	}
	h.logger.Debug("wrote package files", zap.String("package_id", packageID), zap.Int("files", len(files)))
	return nil
}

func (h *VaultHost) WriteTheme(ctx context.Context, name string, files map[string][]byte) error {
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("theme name: %w: %w", ErrHostWriteFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := replaceDir(h.ThemeDir(name), files); err != nil {
		return fmt.Errorf("%w: %w", ErrHostWriteFailed, err)
	}
	return nil
}

func (h *VaultHost) ReloadExtension(ctx context.Context, packageID string) error {
	if len(h.reloadCommand) == 0 {
		h.logger.Debug("no reload command configured", zap.String("package_id", packageID))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.reloadCommand[0], h.reloadCommand[1:]...)
	cmd.Dir = h.root
	cmd.Env = append(os.Environ(), branding.EnvVar("PACKAGE_ID")+"="+packageID)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("reload command for %s failed: %w\n%s", packageID, err, string(output))
	}
	return nil
}

func (h *VaultHost) EnableExtension(ctx context.Context, packageID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	enabled, err := h.enabledPlugins()
	if err != nil {
		return err
	}
	if !slices.Contains(enabled, packageID) {
		enabled = append(enabled, packageID)
		data, err := json.MarshalIndent(enabled, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling enabled plugins: %w", err)
		}
		if err := os.WriteFile(h.enabledPath(), data, platform.FileMode); err != nil {
			return fmt.Errorf("%w: writing %s: %w", ErrHostWriteFailed, enabledPluginsFile, err)
		}
	}
	return h.ReloadExtension(ctx, packageID)
}

// EnabledPlugins returns the identifiers listed as enabled.
func (h *VaultHost) EnabledPlugins() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabledPlugins()
}

func (h *VaultHost) enabledPath() string {
	return filepath.Join(h.root, configDirName, enabledPluginsFile)
}

func (h *VaultHost) enabledPlugins() ([]string, error) {
	data, err := os.ReadFile(h.enabledPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", enabledPluginsFile, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", enabledPluginsFile, err)
	}
	return ids, nil
}

func (h *VaultHost) IsExtensionIdentifierKnown(packageID string) bool {
	if ValidateName(packageID) != nil {
		return false
	}
	info, err := os.Stat(h.PluginDir(packageID))
	return err == nil && info.IsDir()
}

func (h *VaultHost) InstalledVersion(packageID string) (string, bool) {
	if ValidateName(packageID) != nil {
		return "", false
	}
	m, err := manifest.ParseFile(filepath.Join(h.PluginDir(packageID), "manifest.json"))
	if err != nil || m.Version == "" {
		return "", false
	}
	return m.Version, true
}
