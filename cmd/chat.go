package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/swissenergydata/decipher/internal/config"
	"github.com/swissenergydata/decipher/internal/orchestrator"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Starts a conversational session against the indexed corpus. Type your
questions at the prompt; "clear" resets the conversation and "exit" leaves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		persona, err := pickPersona()
		if err != nil {
			return err
		}

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		session := orchestrator.NewSession(uuid.NewString(), persona)
		fmt.Printf("Chatting as %s. Type \"exit\" to leave, \"clear\" to reset.\n\n", persona)

		prompt := promptui.Prompt{Label: ">"}
		for {
			input, err := prompt.Run()
			if err != nil {
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					return nil
				}
				return err
			}

			input = strings.TrimSpace(input)
			switch strings.ToLower(input) {
			case "":
				continue
			case "exit", "quit":
				return nil
			case "clear":
				session.Clear()
				fmt.Println("Conversation cleared.")
				continue
			}

			resp := a.orch.Process(ctx, input, persona, session.Turns())
			session.Append(input, resp)

			fmt.Printf("\n%s\n\n", resp.Content)
			fmt.Printf("  confidence %.2f", resp.Confidence)
			if len(resp.DataSources) > 0 {
				fmt.Printf("  |  sources: %s", strings.Join(resp.DataSources, ", "))
			}
			fmt.Println()
			fmt.Println()
		}
	},
}

// pickPersona runs the interactive audience selector.
func pickPersona() (config.Persona, error) {
	items := make([]string, len(config.Personas))
	for i, p := range config.Personas {
		items[i] = string(p)
	}

	sel := promptui.Select{
		Label: "Who is this answer for",
		Items: items,
	}
	_, choice, err := sel.Run()
	if err != nil {
		return "", err
	}
	return config.Persona(choice), nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
