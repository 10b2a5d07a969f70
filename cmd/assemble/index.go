package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/assemble-go/client"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "本地事件索引",
	Long:  "索引需要在 Profile 的 index 段启用，数据存放在 data_path/index/<profile> 下",
}

var indexSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "把索引追到最新确认区块",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			res, err := c.SyncIndex(ctx)
			if err != nil {
				return err
			}
			if res.UpToDate {
				formatter.PrintInfo("索引已是最新")
			} else {
				formatter.PrintSuccess(fmt.Sprintf("已同步区块 %d-%d", res.FromBlock, res.ToBlock))
			}
			return formatter.Print(res)
		})
	},
}

func init() {
	indexCmd.AddCommand(indexSyncCmd)
}
