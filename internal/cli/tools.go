package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/tools"
)

// addToolCommands adds the tool surface and the ask command.
func addToolCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newToolsCmd(app))
	rootCmd.AddCommand(newAskCmd(app))
}

func newToolsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List and invoke the tools exposed to assistants",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tools with their parameter schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			infos := tools.List()
			if output.IsStructured() {
				return output.Structured(infos)
			}
			for _, info := range infos {
				output.Bold("%s", info.Name)
				output.Printf("  %s\n", info.Description)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "call <name> [json-arguments]",
		Short: "Invoke a tool and print its result envelope",
		Example: `  contextcraft tools call get_holdings
  contextcraft tools call trade '{"symbol":"TCS","side":"buy","quantity":1}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}

			out, execErr := app.Tools.ExecuteTool(ctx, args[0], raw)
			if out == "" {
				return execErr
			}

			// Tool output is always a JSON envelope; YAML re-encodes it.
			if output.format == FormatYAML {
				if err := output.YAML(json.RawMessage(out)); err != nil {
					return err
				}
			} else {
				output.Println(indentJSON(json.RawMessage(out), ""))
			}

			if execErr != nil || strings.HasPrefix(out, `{"status":"error"`) {
				return errReported
			}
			return nil
		},
	})

	return cmd
}

func newAskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about your account using the tools",
		Long: `Send the question to an OpenAI chat model that may call the same tools as
'contextcraft tools call'. The trade tool places real orders unless trading
mode is paper or read-only mode is on.`,
		Example: `  contextcraft ask "how concentrated is my portfolio?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			key := app.Config.Credentials.OpenAI.APIKey
			if key == "" {
				return fmt.Errorf("openai api key: %w", apperrors.ErrNotAuthenticated)
			}

			client := tools.NewOpenAIClient(tools.LLMConfig{
				APIKey:    key,
				Model:     app.Config.Agent.Model,
				MaxRounds: app.Config.Agent.MaxRounds,
			})

			cot, err := client.CompleteWithTools(ctx, tools.DefaultSystemPrompt, strings.Join(args, " "), tools.Definitions(), app.Tools)
			if cot == nil {
				return err
			}

			if output.IsStructured() {
				if serr := output.Structured(cot); serr != nil {
					return serr
				}
			} else {
				for _, tc := range cot.ToolCalls {
					output.Dim("→ %s %s", tc.ToolName, TruncateString(tc.Arguments, 80))
				}
				if cot.Response != "" {
					output.Println()
					output.Println(cot.Response)
				}
			}

			if err != nil {
				output.Warning("%v", err)
				return errReported
			}
			return nil
		},
	}
}
