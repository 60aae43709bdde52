package main

import "github.com/spf13/cobra"

var validateTestsCmd = &cobra.Command{
	Use:   "validate_tests <submitter>",
	Short: "Validate that the submitter's tests report no bugs in the original assignment code",
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
		return printResult(res.NewValidatorPipeline().ValidateTests(submitter))
	},
}

func init() {
	rootCmd.AddCommand(validateTestsCmd)
}
