// Package config 提供客户端 Profile 管理
//
// 每个 Profile 描述一条链上的连接方式：RPC 端点、合约地址、缓存、索引与日志配置。
// Profile 以 JSON 文件形式保存在 <configDir>/profiles 下，current 文件记录当前使用的 Profile。
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/cache"
	"github.com/weisyn/assemble-go/client/core/transport"
	logconfig "github.com/weisyn/assemble-go/internal/config/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// DefaultConfigDirName 默认配置目录名（位于用户主目录下）
const DefaultConfigDirName = ".assemble"

// Profile 客户端配置Profile
type Profile struct {
	Name    string `json:"name"`     // Profile名称: mainnet/sepolia/local
	ChainID uint64 `json:"chain_id"` // 链ID

	// 合约地址，为空时按链 ID 查表
	ContractAddress string `json:"contract_address,omitempty"`

	// 节点端点(按优先级排序)
	Endpoints []EndpointConfig `json:"endpoints"`

	// 本地路径
	KeystorePath string `json:"keystore_path"` // Keystore目录
	DataPath     string `json:"data_path"`     // 数据目录（索引库）

	// 默认签名账户
	DefaultAccount string `json:"default_account,omitempty"`

	// 网络配置
	Timeout       Duration `json:"timeout"`        // 请求超时
	RetryAttempts int      `json:"retry_attempts"` // 重试次数
	RetryBackoff  Duration `json:"retry_backoff"`  // 退避时间

	// 故障转移
	HealthCheckInterval Duration `json:"health_check_interval"` // 健康检查间隔

	// 交易默认值
	GasMarginPercent      uint64   `json:"gas_margin_percent,omitempty"`       // 估算 gas 的放大百分比
	ReceiptPollInterval   Duration `json:"receipt_poll_interval,omitempty"`    // 等待回执的轮询间隔
	DefaultPlatformFeeBps uint16   `json:"default_platform_fee_bps,omitempty"` // 默认平台费

	Cache CacheConfig           `json:"cache"`
	Index IndexConfig           `json:"index"`
	Log   *logconfig.LogOptions `json:"log,omitempty"`
}

// EndpointConfig 端点配置
type EndpointConfig struct {
	Name     string `json:"name"`     // 端点名称
	Priority int    `json:"priority"` // 优先级(数字越小越优先)
	URL      string `json:"url"`      // http(s):// 或 ws(s)://
}

// CacheConfig 只读调用缓存配置
type CacheConfig struct {
	Backend       string   `json:"backend"` // memory / redis / none
	DefaultTTL    Duration `json:"default_ttl"`
	MaxEntrySize  int      `json:"max_entry_size,omitempty"`
	RedisAddr     string   `json:"redis_addr,omitempty"`
	RedisPassword string   `json:"redis_password,omitempty"`
	RedisDB       int      `json:"redis_db,omitempty"`
	KeyPrefix     string   `json:"key_prefix,omitempty"`
}

// IndexConfig 日志索引配置
type IndexConfig struct {
	Enabled       bool   `json:"enabled"`
	Backend       string `json:"backend"` // badger / memory
	Path          string `json:"path,omitempty"`
	StartBlock    uint64 `json:"start_block"`
	BatchSize     uint64 `json:"batch_size"`
	Confirmations uint64 `json:"confirmations"`
}

// Duration 时间duration(支持JSON序列化)
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(dur)
	return nil
}

// Std 转换为 time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Validate 校验 Profile
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return sdkerrors.Validation("Profile name cannot be empty", "name")
	}
	if p.ChainID == 0 {
		return sdkerrors.Validation("Chain ID is required", "chain_id")
	}
	if len(p.Endpoints) == 0 {
		return sdkerrors.Validation("At least one RPC endpoint is required", "endpoints")
	}
	for i, ep := range p.Endpoints {
		if strings.TrimSpace(ep.URL) == "" {
			return sdkerrors.Validationf("endpoints", "Endpoint %d has no URL", i)
		}
	}
	if p.ContractAddress != "" && !common.IsHexAddress(p.ContractAddress) {
		return sdkerrors.Validation("Invalid contract address", "contract_address")
	}
	if p.GasMarginPercent != 0 && p.GasMarginPercent < 100 {
		return sdkerrors.Validation("Gas margin must be at least 100 percent", "gas_margin_percent")
	}
	return nil
}

// Contract 合约地址；未配置时使用链的默认部署地址
func (p *Profile) Contract() (common.Address, error) {
	if p.ContractAddress != "" {
		if !common.IsHexAddress(p.ContractAddress) {
			return common.Address{}, sdkerrors.Validation("Invalid contract address", "contract_address")
		}
		return common.HexToAddress(p.ContractAddress), nil
	}
	return ContractAddressForChain(p.ChainID)
}

// TransportConfig 转换为传输层配置
func (p *Profile) TransportConfig() transport.ClientConfig {
	endpoints := make([]transport.EndpointConfig, 0, len(p.Endpoints))
	for _, ep := range p.Endpoints {
		endpoints = append(endpoints, transport.EndpointConfig{Name: ep.Name, Priority: ep.Priority, URL: ep.URL})
	}
	return transport.ClientConfig{
		ChainID:             p.ChainID,
		Endpoints:           endpoints,
		Timeout:             p.Timeout.Std(),
		RetryAttempts:       p.RetryAttempts,
		RetryBackoff:        p.RetryBackoff.Std(),
		HealthCheckInterval: p.HealthCheckInterval.Std(),
	}
}

// CacheSettings 转换为缓存配置
func (p *Profile) CacheSettings() cache.Config {
	cfg := cache.DefaultConfig()
	if p.Cache.Backend != "" {
		cfg.Backend = p.Cache.Backend
	}
	if p.Cache.DefaultTTL > 0 {
		cfg.DefaultTTL = p.Cache.DefaultTTL.Std()
	}
	if p.Cache.MaxEntrySize > 0 {
		cfg.MaxEntrySize = p.Cache.MaxEntrySize
	}
	cfg.Redis.Addr = p.Cache.RedisAddr
	cfg.Redis.Password = p.Cache.RedisPassword
	cfg.Redis.DB = p.Cache.RedisDB
	if p.Cache.KeyPrefix != "" {
		cfg.Redis.KeyPrefix = p.Cache.KeyPrefix
	}
	cfg.Redis.DefaultTTL = cfg.DefaultTTL
	return cfg
}

// ProfileManager Profile管理器
type ProfileManager struct {
	configDir      string
	currentProfile string
	profiles       map[string]*Profile
}

// DefaultConfigDir 返回 ~/.assemble
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDirName), nil
}

// NewProfileManager 创建Profile管理器
func NewProfileManager(configDir string) (*ProfileManager, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	pm := &ProfileManager{
		configDir: configDir,
		profiles:  make(map[string]*Profile),
	}

	if err := pm.loadProfiles(); err != nil {
		return nil, err
	}

	if err := pm.loadCurrentProfile(); err != nil {
		pm.currentProfile = "local"
	}

	return pm, nil
}

// ConfigDir 配置目录
func (pm *ProfileManager) ConfigDir() string { return pm.configDir }

// loadProfiles 加载所有profiles，目录不存在时写入默认profiles
func (pm *ProfileManager) loadProfiles() error {
	profilesDir := filepath.Join(pm.configDir, "profiles")

	if _, err := os.Stat(profilesDir); os.IsNotExist(err) {
		if err := os.MkdirAll(profilesDir, 0700); err != nil {
			return fmt.Errorf("create profiles dir: %w", err)
		}
		if err := pm.createDefaultProfiles(); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		return fmt.Errorf("read profiles dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isJSONFile(entry.Name()) {
			continue
		}

		profile, err := pm.loadProfile(filepath.Join(profilesDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load profile %s: %v\n", entry.Name(), err)
			continue
		}
		pm.profiles[profile.Name] = profile
	}

	return nil
}

// loadProfile 加载单个profile
func (pm *ProfileManager) loadProfile(filePath string) (*Profile, error) {
	//nolint:gosec // G304: filePath 来自配置目录
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}

	pm.applyDefaults(&profile)
	return &profile, nil
}

// applyDefaults 填充默认路径与网络配置
func (pm *ProfileManager) applyDefaults(profile *Profile) {
	if profile.KeystorePath == "" {
		profile.KeystorePath = filepath.Join(pm.configDir, "keystores", profile.Name)
	}
	if profile.DataPath == "" {
		profile.DataPath = filepath.Join(pm.configDir, "data", profile.Name)
	}
	if profile.Index.Path == "" {
		profile.Index.Path = filepath.Join(profile.DataPath, "index")
	}
	if profile.Index.Backend == "" {
		profile.Index.Backend = "badger"
	}
	if profile.Index.BatchSize == 0 {
		profile.Index.BatchSize = 2000
	}

	if profile.Timeout == 0 {
		profile.Timeout = Duration(transport.DefaultTimeout)
	}
	if profile.RetryAttempts == 0 {
		profile.RetryAttempts = transport.DefaultRetryAttempts
	}
	if profile.RetryBackoff == 0 {
		profile.RetryBackoff = Duration(transport.DefaultRetryBackoff)
	}
	if profile.HealthCheckInterval == 0 {
		profile.HealthCheckInterval = Duration(transport.DefaultHealthCheckInterval)
	}
}

// loadCurrentProfile 加载当前profile
func (pm *ProfileManager) loadCurrentProfile() error {
	//nolint:gosec // G304: 来自配置目录
	data, err := os.ReadFile(filepath.Join(pm.configDir, "current"))
	if err != nil {
		return err
	}
	pm.currentProfile = strings.TrimSpace(string(data))
	return nil
}

// saveCurrentProfile 保存当前profile
func (pm *ProfileManager) saveCurrentProfile() error {
	return os.WriteFile(filepath.Join(pm.configDir, "current"), []byte(pm.currentProfile), 0600)
}

// DefaultProfiles 内置 profiles：四条支持链加本地 anvil/hardhat 节点
func DefaultProfiles() []*Profile {
	profiles := make([]*Profile, 0, len(chains)+1)
	for _, c := range SupportedChains() {
		profiles = append(profiles, &Profile{
			Name:    c.Name,
			ChainID: c.ID,
			Endpoints: []EndpointConfig{
				{Name: c.Name + "-primary", Priority: 1, URL: c.DefaultRPC},
			},
			Timeout:             Duration(60 * time.Second),
			RetryAttempts:       5,
			RetryBackoff:        Duration(2 * time.Second),
			HealthCheckInterval: Duration(60 * time.Second),
			GasMarginPercent:    120,
			Cache:               CacheConfig{Backend: cache.BackendMemory, DefaultTTL: Duration(5 * time.Minute)},
			Index:               IndexConfig{Backend: "badger", BatchSize: 2000, Confirmations: 2},
		})
	}

	profiles = append(profiles, &Profile{
		Name:    "local",
		ChainID: ChainIDLocal,
		// 本地节点每次部署地址不同，需手动填写
		ContractAddress: AssembleContractAddress.Hex(),
		Endpoints: []EndpointConfig{
			{Name: "local-node", Priority: 1, URL: "http://127.0.0.1:8545"},
		},
		Timeout:             Duration(30 * time.Second),
		RetryAttempts:       3,
		RetryBackoff:        Duration(time.Second),
		HealthCheckInterval: Duration(30 * time.Second),
		GasMarginPercent:    120,
		Cache:               CacheConfig{Backend: cache.BackendMemory, DefaultTTL: Duration(30 * time.Second)},
		Index:               IndexConfig{Enabled: true, Backend: "memory", BatchSize: 5000},
	})
	return profiles
}

// createDefaultProfiles 创建默认profiles
func (pm *ProfileManager) createDefaultProfiles() error {
	for _, profile := range DefaultProfiles() {
		if err := pm.SaveProfile(profile); err != nil {
			return err
		}
	}

	pm.currentProfile = "local"
	return pm.saveCurrentProfile()
}

// GetProfile 获取指定profile
func (pm *ProfileManager) GetProfile(name string) (*Profile, error) {
	profile, exists := pm.profiles[name]
	if !exists {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	return profile, nil
}

// GetCurrentProfile 获取当前profile
func (pm *ProfileManager) GetCurrentProfile() (*Profile, error) {
	return pm.GetProfile(pm.currentProfile)
}

// CurrentName 当前 profile 名称
func (pm *ProfileManager) CurrentName() string { return pm.currentProfile }

// ListProfiles 按名称排序列出所有profiles
func (pm *ProfileManager) ListProfiles() []string {
	names := make([]string, 0, len(pm.profiles))
	for name := range pm.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SaveProfile 保存profile
func (pm *ProfileManager) SaveProfile(profile *Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	pm.applyDefaults(profile)

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	profilesDir := filepath.Join(pm.configDir, "profiles")
	if err := os.MkdirAll(profilesDir, 0700); err != nil {
		return fmt.Errorf("create profiles dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(profilesDir, profile.Name+".json"), data, 0600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	pm.profiles[profile.Name] = profile
	return nil
}

// SwitchProfile 切换profile
func (pm *ProfileManager) SwitchProfile(name string) error {
	if _, exists := pm.profiles[name]; !exists {
		return fmt.Errorf("profile not found: %s", name)
	}

	pm.currentProfile = name
	return pm.saveCurrentProfile()
}

// DeleteProfile 删除profile
func (pm *ProfileManager) DeleteProfile(name string) error {
	if name == pm.currentProfile {
		return fmt.Errorf("cannot delete current profile")
	}

	profilePath := filepath.Join(pm.configDir, "profiles", name+".json")
	if err := os.Remove(profilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete profile file: %w", err)
	}

	delete(pm.profiles, name)
	return nil
}

// isJSONFile 检查是否是JSON文件
func isJSONFile(name string) bool {
	return filepath.Ext(name) == ".json"
}
