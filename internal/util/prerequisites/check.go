// Package prerequisites checks that the local tools a check run shells out
// to are installed.
package prerequisites

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// versionTimeout bounds the version lookup.
const versionTimeout = 5 * time.Second

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

var knownTools = map[string]Tool{
	"ansible": {
		Name:        "ansible",
		Description: "Required for gathering hardware facts with the setup module",
		InstallURL:  "https://docs.ansible.com/ansible/latest/installation_guide/",
	},
}

// FactCommandTools returns the tools needed to run a fact gathering
// command. The command binary is always required.
func FactCommandTools(command []string) []Tool {
	if len(command) == 0 {
		return nil
	}
	name := filepath.Base(command[0])
	tool, ok := knownTools[name]
	if !ok {
		tool = Tool{Name: command[0], Description: "Fact gathering command"}
	} else if name != command[0] {
		tool.Name = command[0]
	}
	tool.Required = true
	return []Tool{tool}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if !tool.Required {
			continue
		}
		if tool.InstallURL != "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		} else {
			missing = append(missing, tool.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available.
func Check(ctx context.Context, tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := exec.LookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			result.Version = getToolVersion(ctx, tool.Name)
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// getToolVersion returns the first line of `name --version`, or an empty
// string if the tool does not support the flag.
func getToolVersion(ctx context.Context, name string) string {
	vctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	// #nosec G204 - name comes from the configured fact command
	output, err := exec.CommandContext(vctx, name, "--version").Output()
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(first)
}
