package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jihwankim/shader-fuzz/pkg/signature"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <log-file>",
	Args:  cobra.ExactArgs(1),
	Short: "Print the crash signature of an execution log",
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read log file: %w", err)
		}
		fmt.Println(signature.FromLog(string(data)))
		return nil
	},
}
