package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/assemble-go/pkg/codec"
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "经纬度打包与解包",
}

var locationPackFlags struct {
	Lat float64
	Lon float64
}

var locationPackCmd = &cobra.Command{
	Use:     "pack",
	Short:   "把经纬度打包为 uint256",
	Example: "  assemble location pack --lat -33.856784 --lon 151.215297",
	RunE: func(cmd *cobra.Command, args []string) error {
		packed, err := codec.PackLocation(locationPackFlags.Lat, locationPackFlags.Lon)
		if err != nil {
			return err
		}
		return formatter.Print(map[string]interface{}{
			"packed":    packed.String(),
			"hex":       fmt.Sprintf("0x%064x", packed),
			"latitude":  locationPackFlags.Lat,
			"longitude": locationPackFlags.Lon,
		})
	},
}

var locationUnpackCmd = &cobra.Command{
	Use:   "unpack <packed>",
	Short: "解包 uint256 位置",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		packed, err := parseBigInt(args[0], "packed")
		if err != nil {
			return err
		}
		return formatter.Print(codec.UnpackLocation(packed))
	},
}

func init() {
	locationPackCmd.Flags().Float64Var(&locationPackFlags.Lat, "lat", 0, "纬度 [-90, 90]")
	locationPackCmd.Flags().Float64Var(&locationPackFlags.Lon, "lon", 0, "经度 [-180, 180]")
	_ = locationPackCmd.MarkFlagRequired("lat")
	_ = locationPackCmd.MarkFlagRequired("lon")

	locationCmd.AddCommand(locationPackCmd, locationUnpackCmd)
}
