package main

import (
	"time"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <submitter>",
	Short: "Move a fully validated submission into the scheduler's staged queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadResources()
		if err != nil {
			return err
		}
		submitter, err := resolveSubmitter(res, args[0])
		if err != nil {
			return err
		}
		return printResult(res.NewValidatorPipeline().Submit(submitter, time.Now(), res.Queue))
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
