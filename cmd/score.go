package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"taste_match/models"
)

var scoreCmd = &cobra.Command{
	Use:   "score <pairing> <holder_id> <partner_id>...",
	Short: "计算用户与一个或多个餐厅/用户的匹配分",
	Long:  "pairing 为 user_restaurant（或 restaurant）/ user_user（或 user）。单个对象输出完整结果，多个对象走批量打分。",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runScore,
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

func runScore(cmd *cobra.Command, args []string) error {
	pairing, err := models.ParsePairing(args[0])
	if err != nil {
		return err
	}
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}
	holderID, partners := ids[0], ids[1:]

	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(partners) == 1 {
		res, err := a.scores.Score(cmd.Context(), pairing, holderID, partners[0])
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	scores, err := a.scores.BatchScore(cmd.Context(), pairing, holderID, partners)
	if err != nil {
		return err
	}
	return printJSON(models.BatchScoreData{Pairing: pairing, HolderID: holderID, Scores: scores})
}
