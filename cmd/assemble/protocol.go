package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/weisyn/assemble-go/client"
)

var protocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "协议参数",
}

var protocolInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "查询协议常量、协议费与收款地址",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			info, err := c.Protocol.GetProtocolInfo(ctx)
			if err != nil {
				return err
			}
			return formatter.Print(info)
		})
	},
}

func init() {
	protocolCmd.AddCommand(protocolInfoCmd)
}
