package cmd

import (
	"github.com/spf13/cobra"

	"taste_match/scheduler"
)

var prewarmCmd = &cobra.Command{
	Use:   "prewarm",
	Short: "按配置为用户和餐厅执行一次缓存预热",
	RunE:  runPrewarm,
}

func runPrewarm(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := scheduler.NewScheduler(a.cfg, a.entities, a.scores).Prewarm(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(report)
}
