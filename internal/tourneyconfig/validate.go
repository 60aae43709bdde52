package tourneyconfig

import (
	"fmt"
	"os"

	"tourney/internal/assignment"
)

// CheckAssignmentConfig reports whether cfg names a registered assignment
// type and points at a source directory that actually exists, mirroring
// AssignmentConfig.check_assignment_valid from the original tournament.
func CheckAssignmentConfig(cfg AssignmentConfig, knownTypes []string) assignment.Result {
	known := false
	for _, t := range knownTypes {
		if t == cfg.AssignmentType {
			known = true
			break
		}
	}
	if !known {
		return assignment.Fail(fmt.Sprintf(
			"assignment_type %q is not one of the registered adapters: %v", cfg.AssignmentType, knownTypes))
	}

	if _, err := os.Stat(cfg.SourceAssgDir); err != nil {
		return assignment.Fail(fmt.Sprintf("source_assg_dir %q does not exist", cfg.SourceAssgDir))
	}

	return assignment.Ok()
}
