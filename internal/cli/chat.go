package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rentalbot/internal/service"
)

var (
	streamAnswers bool
	clearFirst    bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Run:   runChat,
	}
	cmd.Flags().BoolVar(&streamAnswers, "stream", true, "Print answers as they are generated")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "Start with an empty conversation")

	RootCmd.AddCommand(cmd)
}

func isQuit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "quit", "exit", "bye":
		return true
	}
	return false
}

func runChat(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	rt, err := openRuntime(ctx)
	if err != nil {
		exitErr("initialize assistant", err)
	}
	defer rt.Close()

	bot, err := rt.NewChatbot(ctx, service.DefaultSessionID)
	if err != nil {
		exitErr("create chatbot", err)
	}
	if clearFirst {
		bot.Clear(ctx)
	}

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Println(boldGreen("Welcome to the Property Rental Assistant!"))
	fmt.Printf("Ask about %d properties. Type 'quit', 'exit' or 'bye' to leave.\n", rt.Catalog.Len())
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		userInput := strings.TrimSpace(scanner.Text())
		if userInput == "" {
			continue
		}
		if isQuit(userInput) {
			break
		}

		fmt.Print(boldCyan("Assistant: "))
		if streamAnswers {
			streamed := false
			answer := bot.GetResponseStream(ctx, userInput, func(delta string) error {
				streamed = true
				fmt.Print(delta)
				return nil
			})
			if !streamed {
				fmt.Print(answer)
			}
			fmt.Println()
		} else {
			fmt.Println(bot.GetResponse(ctx, userInput))
		}
		fmt.Println()

		if ctx.Err() != nil {
			break
		}
	}

	fmt.Println(boldGreen("Thank you for using the Property Rental Assistant. Goodbye!"))
}
