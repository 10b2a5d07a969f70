package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/weisyn/assemble-go/client"
	"github.com/weisyn/assemble-go/client/core/config"
	"github.com/weisyn/assemble-go/client/core/output"
	logconfig "github.com/weisyn/assemble-go/internal/config/log"
	logimpl "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/internal/core/infrastructure/metrics"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	Profile      string // Profile 名称
	ConfigDir    string // 配置目录
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
	Verbose      bool   // 详细模式
}

var (
	globalFlags GlobalFlags
	profileMgr  *config.ProfileManager
	formatter   *output.Formatter
	logger      logInterface.Logger
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble 活动票务合约命令行客户端",
	Long: `assemble - Assemble 合约的薄客户端

离线命令（不需要节点）:
  token     解析/构造 token id
  location  经纬度打包/解包
  venue     场馆哈希

链上查询:
  event     活动详情与列表
  protocol  协议参数
  refund    退款金额
  index     同步本地事件索引

配置:
  profile   多网络 Profile 管理（~/.assemble/profiles）`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(globalFlags.OutputFormat)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, cmd.OutOrStdout())
		formatter.SetLogWriter(cmd.ErrOrStderr())
		formatter.SetSilent(globalFlags.Silent)

		opts := logconfig.Default()
		if globalFlags.Verbose {
			opts.Level = "debug"
		}
		if logger, err = logimpl.NewFromOptions(opts); err != nil {
			return fmt.Errorf("初始化日志: %w", err)
		}
		logimpl.SetLogger(logger)

		profileMgr, err = config.NewProfileManager(globalFlags.ConfigDir)
		if err != nil {
			return fmt.Errorf("初始化配置: %w", err)
		}
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if formatter != nil {
			formatter.PrintError(err)
		} else {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.Profile, "profile", "", "使用指定的 Profile（默认使用当前 Profile）")
	pf.StringVar(&globalFlags.ConfigDir, "config-dir", "", "配置目录（默认: ~/.assemble）")
	pf.StringVarP(&globalFlags.OutputFormat, "output", "o", "json", "输出格式: json|pretty|table|text")
	pf.BoolVar(&globalFlags.Silent, "silent", false, "静默模式（只输出错误）")
	pf.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(venueCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(protocolCmd)
	rootCmd.AddCommand(refundCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(profileCmd)
}

// currentProfile --profile 指定的 Profile，未指定时使用当前 Profile
func currentProfile() (*config.Profile, error) {
	if globalFlags.Profile != "" {
		return profileMgr.GetProfile(globalFlags.Profile)
	}
	return profileMgr.GetCurrentProfile()
}

// newClient 按当前 Profile 连接节点，调用方负责 Close
func newClient(ctx context.Context) (*client.Client, error) {
	profile, err := currentProfile()
	if err != nil {
		return nil, fmt.Errorf("获取 Profile: %w", err)
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("初始化指标: %w", err)
	}
	return client.New(ctx, profile, client.WithLogger(logger), client.WithMetrics(m))
}

// withClient 连接节点并执行 fn
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

// parseBigInt 解析十进制或 0x 前缀十六进制整数
func parseBigInt(s, field string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, sdkerrors.Validationf(field, "Invalid %s: %q", field, s)
	}
	return v, nil
}

func parseAddress(s, field string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, sdkerrors.Validationf(field, "Invalid %s address: %q", field, s)
	}
	return common.HexToAddress(s), nil
}
