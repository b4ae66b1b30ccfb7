package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/openai/openai-go"
	"github.com/spf13/cobra"

	provideropenai "github.com/davidbz/creditmeter/internal/provider/openai"
)

func newCompleteCommand(opts *rootOptions) *cobra.Command {
	var (
		userID string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "complete <prompt>",
		Short: "Send a metered OpenAI chat completion",
		Long: `Send one chat completion to OpenAI and record its usage against a user's
balance through the billing API. OPENAI_API_KEY must be set.

Examples:
  creditctl complete --user user-1 --model gpt-4o-mini "Say hello"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg provideropenai.Config
			if err := env.Parse(&cfg); err != nil {
				return fmt.Errorf("failed to read OpenAI config: %w", err)
			}

			client, err := provideropenai.NewMeteredClient(cfg, opts.client())
			if err != nil {
				return err
			}

			resp, entry, err := client.Complete(cmd.Context(), userID, openai.ChatCompletionNewParams{
				Model: model,
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.UserMessage(args[0]),
				},
			})
			if resp != nil && len(resp.Choices) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Choices[0].Message.Content)
			}
			if err != nil {
				return err
			}

			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "tokens: %d in, %d out\n", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			if entry != nil {
				fmt.Fprintf(out, "charged %s credits (entry %s)\n", -entry.DeltaCredits, entry.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User whose balance is charged")
	cmd.Flags().StringVar(&model, "model", "gpt-4o-mini", "OpenAI model")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
