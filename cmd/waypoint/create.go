package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/templates"
)

func createCmd() *cobra.Command {
	var (
		template    string
		description string
		base        string
		skipPrompts bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new waypoint project",
		Long: `Create a new project with the specified name.

Templates:
  minimal   One view and the fallback route
  docs      Documentation site with guide pages and a shared runtime unit (default)

Examples:
  waypoint create handbook
  waypoint create handbook --template=minimal
  waypoint create handbook --base=/handbook/ -y`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !skipPrompts && description == "" {
				description = prompt(cmd.InOrStdin(), "? Description: ")
			}
			return runCreate(args[0], template, description, base)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "docs", "Project template (minimal, docs)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().StringVar(&base, "base", "/", "Production base path")
	cmd.Flags().BoolVarP(&skipPrompts, "yes", "y", false, "Skip prompts and use defaults")

	return cmd
}

func runCreate(name, templateName, description, base string) error {
	printBanner()
	fmt.Println("  Creating a new project...")
	fmt.Println()

	if !isValidProjectName(name) {
		return errors.New("E147").
			WithDetail("Project name '" + name + "' is not a valid directory name")
	}

	dir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		return errors.New("E140").
			WithDetail("Directory '" + name + "' already exists").
			WithSuggestion("Choose a different name or remove the existing directory")
	}

	if description == "" {
		description = "A waypoint application"
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	info("Creating project from '%s' template...", templateName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := tmpl.Create(dir, templates.Config{
		ProjectName: filepath.Base(name),
		Description: description,
		Base:        base,
	}); err != nil {
		os.RemoveAll(dir)
		return err
	}

	fmt.Println()
	success("Created %s/", name)
	fmt.Println()
	fmt.Println("  To get started:")
	fmt.Println()
	fmt.Printf("    cd %s\n", name)
	fmt.Println("    waypoint dev")
	fmt.Println()
	return nil
}

func prompt(in io.Reader, question string) string {
	fmt.Print(question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return ""
	}
	return strings.TrimSpace(answer)
}

func isValidProjectName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	for _, r := range name {
		if r == ' ' || r == '\\' || r == ':' {
			return false
		}
	}
	return true
}
