package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/weisyn/assemble-go/pkg/codec"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

var venueCmd = &cobra.Command{
	Use:   "venue",
	Short: "场馆工具",
}

var venueHashCmd = &cobra.Command{
	Use:   "hash <name>",
	Short: "计算场馆名哈希与凭证 token id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		if strings.TrimSpace(name) == "" {
			return sdkerrors.Validation("Venue name cannot be empty", "venueName")
		}
		h := codec.VenueHash(name)
		return formatter.Print(map[string]interface{}{
			"name":                name,
			"hash":                h.Hex(),
			"token_key":           codec.VenueTokenKey(h).String(),
			"credential_token_id": codec.VenueCredentialTokenID(h, 0).String(),
		})
	},
}

func init() {
	venueCmd.AddCommand(venueHashCmd)
}
