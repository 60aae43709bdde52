package main

import "github.com/spf13/cobra"

var validateProgsCmd = &cobra.Command{
	Use:   "validate_progs <submitter>",
	Short: "Validate that the submitter's own tests detect their programs' injected mutations",
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
		return printResult(res.NewValidatorPipeline().ValidateProgs(submitter))
	},
}

func init() {
	rootCmd.AddCommand(validateProgsCmd)
}
