package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Scaffold a new workflow file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			prompt := &survey.Input{Message: "Workflow name:"}
			if err := survey.AskOne(prompt, &name, survey.WithValidator(survey.Required)); err != nil {
				return err
			}
		}
		if strings.ContainsAny(name, "/\\.") {
			return fmt.Errorf("workflow name cannot contain path separators or dots")
		}

		wantsService := false
		if err := survey.AskOne(&survey.Confirm{Message: "Declare a sample API service?", Default: true}, &wantsService); err != nil {
			return err
		}

		path := filepath.Join(".", name+".flow")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		source := buildScaffold(name, wantsService)
		if err := os.WriteFile(path, []byte(source), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		fmt.Printf("\n✓ Created %s\n\n", path)
		fmt.Println("Next steps:")
		fmt.Printf("  flow check %s\n", path)
		fmt.Printf("  flow run --mock %s\n", path)
		return nil
	},
}

func buildScaffold(name string, withService bool) string {
	var b strings.Builder
	b.WriteString("config:\n")
	fmt.Fprintf(&b, "    name: %s\n", name)
	b.WriteString("    version: 1\n")
	b.WriteString("    timeout: 30 seconds\n\n")

	if withService {
		b.WriteString("services:\n")
		b.WriteString("    Notifier is an API at \"https://example.com/api\"\n")
		b.WriteString("        with headers:\n")
		b.WriteString("            Authorization: \"Bearer {env.NOTIFIER_TOKEN}\"\n\n")
	}

	b.WriteString("workflow:\n")
	b.WriteString("    trigger: request received\n\n")
	b.WriteString("    set status to \"received\"\n\n")
	if withService {
		b.WriteString("    step notify:\n")
		b.WriteString("        post update using Notifier with status status\n")
		b.WriteString("            save the result as notifyResult\n")
		b.WriteString("            on failure:\n")
		b.WriteString("                retry 3 times waiting 5 seconds\n\n")
	}
	b.WriteString("    complete with status status\n")

	return b.String()
}
