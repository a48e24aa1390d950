package cmd

import (
	"github.com/spf13/cobra"

	"taste_match/models"
)

var bumpCmd = &cobra.Command{
	Use:   "bump <user|restaurant> <id>",
	Short: "画像变更后为实体分配新的状态版本",
	Args:  cobra.ExactArgs(2),
	RunE:  runBump,
}

func runBump(cmd *cobra.Command, args []string) error {
	kind, err := models.ParseEntityKind(args[0])
	if err != nil {
		return err
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}
	ref := models.EntityRef{Kind: kind, ID: ids[0]}

	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.versions.Bump(cmd.Context(), ref)
	if err != nil {
		return err
	}
	return printJSON(models.VersionData{Kind: ref.Kind, ID: ref.ID, Version: v, Created: true})
}
