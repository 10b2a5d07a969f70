package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/weisyn/assemble-go/client"
	"github.com/weisyn/assemble-go/client/core/assemble"
	"github.com/weisyn/assemble-go/client/core/output"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "活动查询",
}

var eventGetCmd = &cobra.Command{
	Use:   "get <eventId>",
	Short: "查询活动详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBigInt(args[0], "eventId")
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			ev, err := c.Events.GetEvent(ctx, id)
			if err != nil {
				return err
			}
			if ev == nil {
				return sdkerrors.Validationf("eventId", "Event %s does not exist", id)
			}
			return formatter.Print(ev)
		})
	},
}

var eventListFlags struct {
	Offset    uint64
	Limit     uint64
	Organizer string
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "分页列出活动",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := assemble.EventsQuery{Offset: eventListFlags.Offset, Limit: eventListFlags.Limit}
		if eventListFlags.Organizer != "" {
			addr, err := parseAddress(eventListFlags.Organizer, "organizer")
			if err != nil {
				return err
			}
			q.Organizer = addr
		}
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			resp, err := c.Events.GetEvents(ctx, q)
			if err != nil {
				return err
			}
			if formatter.Format() == output.FormatTable {
				return formatter.Print(resp.Events)
			}
			return formatter.Print(resp)
		})
	},
}

func init() {
	f := eventListCmd.Flags()
	f.Uint64Var(&eventListFlags.Offset, "offset", 0, "起始偏移")
	f.Uint64Var(&eventListFlags.Limit, "limit", 10, "每页数量")
	f.StringVar(&eventListFlags.Organizer, "organizer", "", "只列出该组织者的活动")

	eventCmd.AddCommand(eventGetCmd, eventListCmd)
}

