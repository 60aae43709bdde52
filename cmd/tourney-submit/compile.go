package main

import "github.com/spf13/cobra"

var compileCmd = &cobra.Command{
	Use:   "compile <submitter>",
	Short: "Compile the submitter's programs under test and tests",
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
		return printResult(res.NewValidatorPipeline().Compile(submitter))
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
