package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/askcup/internal/model"
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "List the sample questions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for i, q := range model.SampleQuestions {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, q)
		}
	},
}

func init() {
	rootCmd.AddCommand(samplesCmd)
}

// sampleAt returns sample question n, counting from 1
func sampleAt(n int) (string, error) {
	if n < 1 || n > len(model.SampleQuestions) {
		return "", fmt.Errorf("sample must be between 1 and %d, got %d", len(model.SampleQuestions), n)
	}
	return model.SampleQuestions[n-1], nil
}
