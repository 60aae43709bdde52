package main

import (
	"time"

	"github.com/spf13/cobra"
)

var checkEligibilityCmd = &cobra.Command{
	Use:   "check_eligibility <submitter> <assignment_name> <submission_dir>",
	Short: "Check that a submission is eligible to enter the validation pipeline",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		login, assgName, submissionDir := args[0], args[1], args[2]

		res, err := loadResources()
		if err != nil {
			return err
		}
		submitter, err := resolveSubmitter(res, login)
		if err != nil {
			return err
		}

		submissionsClosed := res.Approved.SubmissionsClosed(login, time.Now())
		result := res.NewValidatorPipeline().CheckEligibility(submitter, assgName, submissionDir, submissionsClosed)
		return printResult(result)
	},
}

func init() {
	rootCmd.AddCommand(checkEligibilityCmd)
}
