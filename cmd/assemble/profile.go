package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/assemble-go/client/core/config"
)

// profileCmd Profile 管理命令
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile 管理",
	Long:  "管理网络 Profile，支持 mainnet/sepolia/base/base-sepolia/local 之间切换",
}

// profileRow 列表中的一行
type profileRow struct {
	Name     string `json:"name"`
	ChainID  uint64 `json:"chain_id"`
	Contract string `json:"contract"`
	Current  bool   `json:"current"`
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有 Profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		current := profileMgr.CurrentName()

		rows := make([]profileRow, 0)
		for _, name := range profileMgr.ListProfiles() {
			p, err := profileMgr.GetProfile(name)
			if err != nil {
				continue
			}
			row := profileRow{Name: name, ChainID: p.ChainID, Current: name == current}
			if addr, err := p.Contract(); err == nil {
				row.Contract = addr.Hex()
			}
			rows = append(rows, row)
		}
		return formatter.Print(rows)
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "显示 Profile 详情（默认当前 Profile）",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			profile *config.Profile
			err     error
		)
		if len(args) > 0 {
			profile, err = profileMgr.GetProfile(args[0])
		} else {
			profile, err = currentProfile()
		}
		if err != nil {
			return err
		}
		return formatter.Print(profile)
	},
}

var profileUseCmd = &cobra.Command{
	Use:     "use <name>",
	Aliases: []string{"switch"},
	Short:   "切换当前 Profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := profileMgr.SwitchProfile(name); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("已切换到 profile '%s'", name))

		p, err := profileMgr.GetProfile(name)
		if err != nil {
			return err
		}
		return formatter.Print(profileRow{Name: p.Name, ChainID: p.ChainID, Current: true})
	},
}

func init() {
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileUseCmd)
}
