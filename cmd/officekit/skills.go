package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/officekit/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Bundled document skills",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills with their descriptions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := skills.List()
		if err != nil {
			return err
		}
		return printJSON(list)
	},
}

var skillsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a skill's SKILL.md",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := skills.Get(args[0])
		if err != nil {
			return err
		}
		data, err := skills.Raw(s.Path)
		if err != nil {
			return err
		}
		return printText(string(data))
	},
}

var skillsLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check the skill documents for unknown commands and bad output paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		issues, err := skills.Lint(skills.LintOptions{Commands: commandPaths()})
		if err != nil {
			return err
		}
		for _, i := range issues {
			logger.Warn("skills lint", "issue", i.String())
		}
		if len(issues) > 0 {
			return fmt.Errorf("%d lint issue(s)", len(issues))
		}
		return printJSON(map[string]any{"status": "ok"})
	},
}

// commandPaths returns every command path of the CLI below the root,
// e.g. "pdf tables".
func commandPaths() []string {
	var paths []string
	var walk func(c *cobra.Command, prefix string)
	walk = func(c *cobra.Command, prefix string) {
		for _, sub := range c.Commands() {
			if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
				continue
			}
			p := sub.Name()
			if prefix != "" {
				p = prefix + " " + p
			}
			paths = append(paths, p)
			walk(sub, p)
		}
	}
	walk(rootCmd, "")
	return paths
}

func init() {
	skillsCmd.AddCommand(skillsListCmd, skillsGetCmd, skillsLintCmd)
	rootCmd.AddCommand(skillsCmd)
}
