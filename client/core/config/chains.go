package config

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// AssembleContractAddress 部署前的占位地址
var AssembleContractAddress = common.Address{}

// 支持的链 ID
const (
	ChainIDMainnet     uint64 = 1
	ChainIDSepolia     uint64 = 11155111
	ChainIDBase        uint64 = 8453
	ChainIDBaseSepolia uint64 = 84532
	ChainIDLocal       uint64 = 31337
)

// Chain 链描述
type Chain struct {
	ID              uint64
	Name            string
	Testnet         bool
	ContractAddress common.Address
	DefaultRPC      string
}

var chains = map[uint64]Chain{
	ChainIDMainnet:     {ID: ChainIDMainnet, Name: "mainnet", ContractAddress: AssembleContractAddress, DefaultRPC: "https://eth.merkle.io"},
	ChainIDSepolia:     {ID: ChainIDSepolia, Name: "sepolia", Testnet: true, ContractAddress: AssembleContractAddress, DefaultRPC: "https://sepolia.drpc.org"},
	ChainIDBase:        {ID: ChainIDBase, Name: "base", ContractAddress: AssembleContractAddress, DefaultRPC: "https://mainnet.base.org"},
	ChainIDBaseSepolia: {ID: ChainIDBaseSepolia, Name: "base-sepolia", Testnet: true, ContractAddress: AssembleContractAddress, DefaultRPC: "https://sepolia.base.org"},
}

// LookupChain 按链 ID 查找；本地链不在表中
func LookupChain(chainID uint64) (Chain, bool) {
	c, ok := chains[chainID]
	return c, ok
}

// SupportedChains 按链 ID 升序返回支持的链
func SupportedChains() []Chain {
	out := make([]Chain, 0, len(chains))
	for _, c := range chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ContractAddressForChain 返回链上的 Assemble 合约地址
func ContractAddressForChain(chainID uint64) (common.Address, error) {
	c, ok := chains[chainID]
	if !ok {
		return common.Address{}, sdkerrors.Network(fmt.Sprintf("Unsupported chain: %d", chainID), chainID, nil)
	}
	return c.ContractAddress, nil
}
