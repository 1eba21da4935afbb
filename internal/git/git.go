package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// VaultStatus describes how the vault file relates to an enclosing git repository
type VaultStatus struct {
	IsRepo  bool
	Tracked bool // vault committed: every past version stays in history
	Ignored bool
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--error-unmatch", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckVault inspects the git status of the vault file at vaultPath
func CheckVault(vaultPath string) *VaultStatus {
	dir := filepath.Dir(vaultPath)
	name := filepath.Base(vaultPath)

	status := &VaultStatus{}
	if !IsGitRepo(dir) {
		return status
	}
	status.IsRepo = true
	status.Tracked = IsTracked(dir, name)
	status.Ignored = IsIgnored(dir, name)
	return status
}

// FormatVaultStatus formats git status for display
func FormatVaultStatus(status *VaultStatus, vaultPath string) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	name := filepath.Base(vaultPath)
	switch {
	case status.Tracked:
		result.WriteString(fmt.Sprintf("   warning: %s is tracked by git; old versions stay in history\n", name))
		result.WriteString(fmt.Sprintf("      (run: git rm --cached %s)\n", name))
	case status.Ignored:
		result.WriteString(fmt.Sprintf("   ok: %s is in .gitignore\n", name))
	default:
		result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add to .gitignore)\n", name))
	}

	return result.String()
}
