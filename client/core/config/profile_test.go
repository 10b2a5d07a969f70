package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/client/core/cache"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

func TestNewProfileManager_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "base-sepolia", "local", "mainnet", "sepolia"}, pm.ListProfiles())
	assert.Equal(t, "local", pm.CurrentName())

	current, err := pm.GetCurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, ChainIDLocal, current.ChainID)
	assert.Equal(t, filepath.Join(dir, "keystores", "local"), current.KeystorePath)
	assert.Equal(t, filepath.Join(dir, "data", "local", "index"), current.Index.Path)

	sepolia, err := pm.GetProfile("sepolia")
	require.NoError(t, err)
	assert.Equal(t, ChainIDSepolia, sepolia.ChainID)
	assert.Equal(t, 60*time.Second, sepolia.Timeout.Std())

	_, err = os.Stat(filepath.Join(dir, "profiles", "base-sepolia.json"))
	assert.NoError(t, err)
}

func TestProfileManager_SwitchPersists(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	require.NoError(t, err)
	require.NoError(t, pm.SwitchProfile("sepolia"))
	assert.Error(t, pm.SwitchProfile("nope"))

	reloaded, err := NewProfileManager(dir)
	require.NoError(t, err)
	assert.Equal(t, "sepolia", reloaded.CurrentName())
}

func TestProfileManager_SaveAndDelete(t *testing.T) {
	pm, err := NewProfileManager(t.TempDir())
	require.NoError(t, err)

	custom := &Profile{
		Name:            "custom",
		ChainID:         ChainIDLocal,
		ContractAddress: "0x00000000000000000000000000000000A55E4B1E",
		Endpoints:       []EndpointConfig{{Name: "a", Priority: 1, URL: "http://127.0.0.1:8545"}},
	}
	require.NoError(t, pm.SaveProfile(custom))

	got, err := pm.GetProfile("custom")
	require.NoError(t, err)
	assert.Equal(t, 3, got.RetryAttempts)
	assert.Equal(t, "badger", got.Index.Backend)

	assert.Error(t, pm.DeleteProfile("local"), "current profile cannot be deleted")
	require.NoError(t, pm.DeleteProfile("custom"))
	_, err = pm.GetProfile("custom")
	assert.Error(t, err)
}

func TestProfileManager_SkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewProfileManager(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "profiles", "broken.json"), []byte("{"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profiles", "README"), []byte("x"), 0600))

	pm, err := NewProfileManager(dir)
	require.NoError(t, err)
	assert.Len(t, pm.ListProfiles(), 5)
}

func TestProfile_Validate(t *testing.T) {
	valid := Profile{Name: "x", ChainID: 1, Endpoints: []EndpointConfig{{URL: "http://a"}}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *Profile)
		field  string
	}{
		{"name", func(p *Profile) { p.Name = " " }, "name"},
		{"chain", func(p *Profile) { p.ChainID = 0 }, "chain_id"},
		{"endpoints", func(p *Profile) { p.Endpoints = nil }, "endpoints"},
		{"endpoint url", func(p *Profile) { p.Endpoints = []EndpointConfig{{Name: "a"}} }, "endpoints"},
		{"contract", func(p *Profile) { p.ContractAddress = "0x123" }, "contract_address"},
		{"gas margin", func(p *Profile) { p.GasMarginPercent = 50 }, "gas_margin_percent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			p.Endpoints = append([]EndpointConfig(nil), valid.Endpoints...)
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, sdkerrors.IsValidation(err))
			assert.Equal(t, tt.field, sdkerrors.FieldOf(err))
		})
	}
}

func TestProfile_Contract(t *testing.T) {
	p := Profile{ChainID: ChainIDBase}
	addr, err := p.Contract()
	require.NoError(t, err)
	assert.Equal(t, AssembleContractAddress, addr)

	p.ContractAddress = "0x00000000000000000000000000000000A55E4B1E"
	addr, err = p.Contract()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000A55E4B1E"), addr)

	_, err = (&Profile{ChainID: 999}).Contract()
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNetwork(err))
}

func TestProfile_Conversions(t *testing.T) {
	p := Profile{
		ChainID: ChainIDSepolia,
		Endpoints: []EndpointConfig{
			{Name: "a", Priority: 2, URL: "http://a"},
			{Name: "b", Priority: 1, URL: "http://b"},
		},
		Timeout:      Duration(5 * time.Second),
		RetryBackoff: Duration(time.Second),
		Cache:        CacheConfig{Backend: cache.BackendRedis, RedisAddr: "127.0.0.1:6379", DefaultTTL: Duration(time.Minute)},
	}

	tc := p.TransportConfig()
	assert.Equal(t, ChainIDSepolia, tc.ChainID)
	require.Len(t, tc.Endpoints, 2)
	assert.Equal(t, "http://b", tc.Endpoints[1].URL)
	assert.Equal(t, 5*time.Second, tc.Timeout)

	cc := p.CacheSettings()
	assert.Equal(t, cache.BackendRedis, cc.Backend)
	assert.Equal(t, "127.0.0.1:6379", cc.Redis.Addr)
	assert.Equal(t, time.Minute, cc.Redis.DefaultTTL)
	assert.Equal(t, "assemble:cache:", cc.Redis.KeyPrefix)
}

func TestDuration_JSON(t *testing.T) {
	data, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(data))

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"250ms"`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Std())
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`5`), &d))
}

func TestContractAddressForChain(t *testing.T) {
	for _, id := range []uint64{ChainIDMainnet, ChainIDSepolia, ChainIDBase, ChainIDBaseSepolia} {
		_, err := ContractAddressForChain(id)
		assert.NoError(t, err)
	}

	_, err := ContractAddressForChain(ChainIDLocal)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNetwork(err))
	assert.Contains(t, err.Error(), "Unsupported chain: 31337")

	list := SupportedChains()
	require.Len(t, list, 4)
	assert.Equal(t, ChainIDMainnet, list[0].ID)
}
