package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rentalbot/internal/catalog"
	"rentalbot/internal/service"
)

func init() {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Embed the catalog and save the retrieval index and training examples",
		Run:   runTrain,
	}

	RootCmd.AddCommand(cmd)
}

func runTrain(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load configuration", err)
	}

	cat, err := catalog.Load(cfg.Data.PropertiesFile)
	if err != nil {
		exitErr("load catalog", err)
	}

	result, err := service.NewTrainer(cfg, service.NewOpenAIClient(&cfg.OpenAI)).Train(cmd.Context(), cat)
	if err != nil {
		exitErr("train", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Println(green("Training completed successfully!"))
	fmt.Printf("  Properties indexed: %d\n", result.Properties)
	fmt.Printf("  Training examples:  %d\n", result.Examples)
	fmt.Printf("  Index:              %s\n", result.IndexPath)
	fmt.Printf("  Chain config:       %s\n", result.ChainPath)
}
