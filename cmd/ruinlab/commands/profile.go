package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/decisiveml/ruinlab/internal/profile"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "시뮬레이션 프로필 관리",
	Long: `YAML 프로필을 검증하거나 해시를 계산합니다.

Example:
  go run ./cmd/ruinlab profile validate config/profiles/es_trend.yaml
  go run ./cmd/ruinlab profile validate            # --profiles-dir 전체
  go run ./cmd/ruinlab profile hash config/profiles/es_trend.yaml`,
}

var (
	profileValidateCmd = &cobra.Command{
		Use:   "validate [file...]",
		Short: "프로필 검증 (필수 조건 + 권장 경고)",
		RunE:  runProfileValidate,
	}

	profileHashCmd = &cobra.Command{
		Use:   "hash [file]",
		Short: "프로필 해시 (캐시 키 구성 요소)",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfileHash,
	}
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileValidateCmd)
	profileCmd.AddCommand(profileHashCmd)
}

func runProfileValidate(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		var err error
		if paths, err = filepath.Glob(filepath.Join(profilesDir, "*.yaml")); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range paths {
		p, err := profile.Load(path)
		if err != nil {
			PrintError(out, err.Error())
			failed++
			continue
		}

		PrintSuccess(out, fmt.Sprintf("%s (%s)", path, p.Meta.ProfileID))
		for _, w := range profile.Warn(p) {
			PrintWarning(out, fmt.Sprintf("   [%s] %s", w.Code, w.Message))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d profiles invalid", failed, len(paths))
	}
	return nil
}

func runProfileHash(cmd *cobra.Command, args []string) error {
	p, err := profile.Load(args[0])
	if err != nil {
		return err
	}

	hash, err := profile.Hash(p)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
