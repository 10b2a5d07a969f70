package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/weisyn/assemble-go/client"
)

var refundCmd = &cobra.Command{
	Use:   "refund",
	Short: "退款查询",
}

var refundAmountsCmd = &cobra.Command{
	Use:   "amounts <eventId> <user>",
	Short: "查询用户在已取消活动中的可退金额",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseBigInt(args[0], "eventId")
		if err != nil {
			return err
		}
		user, err := parseAddress(args[1], "user")
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			eligibility, err := c.Refunds.GetRefundEligibility(ctx, eventID, user)
			if err != nil {
				return err
			}
			return formatter.Print(eligibility)
		})
	},
}

func init() {
	refundCmd.AddCommand(refundAmountsCmd)
}
