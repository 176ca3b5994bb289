package correct

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "correct",
	Short: "Run guarded batch corrections against the database.",
}
