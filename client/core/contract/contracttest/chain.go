// Package contracttest 提供内存中的 Assemble 合约替身，供各层测试使用
//
// Chain 实现 transport.Client：eth_call 按方法选择器分发到注册的处理函数，
// 返回值按 ABI 打包；交易被解码后记录下来，回执总是成功；日志按 FilterQuery 过滤。
package contracttest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/client/core/transport"
)

// Handler 处理一次只读调用，返回值按方法的 Outputs 打包
type Handler func(from common.Address, args []interface{}) ([]interface{}, error)

// Call 记录的只读调用
type Call struct {
	Method string
	From   common.Address
	Args   []interface{}
}

// SentTx 记录的交易
type SentTx struct {
	Hash   common.Hash
	From   common.Address
	Method string
	Args   []interface{}
	Value  *big.Int
	Tx     *types.Transaction
}

// Chain 内存合约替身
type Chain struct {
	ABI     abi.ABI
	Address common.Address

	mu          sync.Mutex
	chainID     *big.Int
	baseFee     *big.Int
	head        uint64
	handlers    map[string]Handler
	estimateErr map[string]error
	sendErr     error
	calls       []Call
	sent        []SentTx
	logs        []types.Log
	receipts    map[common.Hash]*types.Receipt
	closed      bool
}

// DefaultAddress 测试合约地址
var DefaultAddress = common.HexToAddress("0x00000000000000000000000000000000A55E4B1E")

// New 创建链替身，链 ID 默认 31337，带 base fee（EIP-1559）
func New() *Chain {
	return &Chain{
		ABI:         contract.MustABI(),
		Address:     DefaultAddress,
		chainID:     big.NewInt(31337),
		baseFee:     big.NewInt(1_000_000_000),
		head:        100,
		handlers:    make(map[string]Handler),
		estimateErr: make(map[string]error),
		receipts:    make(map[common.Hash]*types.Receipt),
	}
}

// SetChainID 设置链 ID
func (c *Chain) SetChainID(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chainID = big.NewInt(id)
}

// SetBaseFee 设置最新区块 base fee；nil 表示 legacy 链
func (c *Chain) SetBaseFee(fee *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseFee = fee
}

// SetHead 设置最新区块高度
func (c *Chain) SetHead(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = n
}

// On 注册方法处理函数
func (c *Chain) On(method string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = h
}

// Return 注册返回固定值的处理函数
func (c *Chain) Return(method string, outputs ...interface{}) {
	c.On(method, func(common.Address, []interface{}) ([]interface{}, error) {
		return outputs, nil
	})
}

// Revert 让方法调用与 gas 估算都以自定义错误 revert
func (c *Chain) Revert(method, errorName string) {
	err := c.RevertError(errorName)
	c.On(method, func(common.Address, []interface{}) ([]interface{}, error) {
		return nil, err
	})
	c.mu.Lock()
	c.estimateErr[method] = err
	c.mu.Unlock()
}

// FailSend 让下一次起的 SendTransaction 返回错误
func (c *Chain) FailSend(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// RevertError 构造节点返回的 revert 错误
func (c *Chain) RevertError(errorName string) error {
	e, ok := c.ABI.Errors[errorName]
	if !ok {
		panic(fmt.Sprintf("contracttest: unknown error %s", errorName))
	}
	return &RevertErr{Data: hexutil.Encode(e.ID[:4])}
}

// RevertErr 模拟 JSON-RPC revert 错误（code 3）
type RevertErr struct {
	Data string
}

func (e *RevertErr) Error() string          { return "execution reverted" }
func (e *RevertErr) ErrorCode() int         { return 3 }
func (e *RevertErr) ErrorData() interface{} { return e.Data }

// Calls 返回指定方法的调用记录
func (c *Chain) Calls(method string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Call
	for _, call := range c.calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

// CallCount 指定方法的调用次数
func (c *Chain) CallCount(method string) int {
	return len(c.Calls(method))
}

// TotalCalls 全部只读调用次数
func (c *Chain) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Sent 返回已发送的交易
func (c *Chain) Sent() []SentTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SentTx(nil), c.sent...)
}

// LastSent 最后一笔交易
func (c *Chain) LastSent() (SentTx, bool) {
	sent := c.Sent()
	if len(sent) == 0 {
		return SentTx{}, false
	}
	return sent[len(sent)-1], true
}

// AddLogs 添加可被 FilterLogs 查询到的日志
func (c *Chain) AddLogs(logs ...types.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range logs {
		l.Index = uint(len(c.logs))
		c.logs = append(c.logs, l)
		if l.BlockNumber > c.head {
			c.head = l.BlockNumber
		}
	}
}

// MakeLog 按事件 ABI 构造日志；indexed 与 data 按事件参数顺序给出
func (c *Chain) MakeLog(event string, block uint64, indexed []interface{}, data ...interface{}) types.Log {
	ev, ok := c.ABI.Events[event]
	if !ok {
		panic(fmt.Sprintf("contracttest: unknown event %s", event))
	}

	topics := []common.Hash{ev.ID}
	for _, v := range indexed {
		t, err := abi.MakeTopics([]interface{}{v})
		if err != nil {
			panic(fmt.Sprintf("contracttest: topic for %s: %v", event, err))
		}
		topics = append(topics, t[0][0])
	}

	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		panic(fmt.Sprintf("contracttest: pack %s data: %v", event, err))
	}

	return types.Log{
		Address:     c.Address,
		Topics:      topics,
		Data:        packed,
		BlockNumber: block,
		TxHash:      crypto.Keccak256Hash([]byte(event), new(big.Int).SetUint64(block).Bytes(), packed),
	}
}

// ===== transport.Client =====

func (c *Chain) ChainID(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.chainID), nil
}

func (c *Chain) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *Chain) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := new(big.Int).SetUint64(c.head)
	if number != nil {
		n = new(big.Int).Set(number)
	}
	h := &types.Header{Number: n, Time: 1_700_000_000 + n.Uint64()*12}
	if c.baseFee != nil {
		h.BaseFee = new(big.Int).Set(c.baseFee)
	}
	return h, nil
}

func (c *Chain) method(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("contracttest: calldata too short")
	}
	m, err := c.ABI.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("contracttest: unpack %s args: %w", m.Name, err)
	}
	return m, args, nil
}

func (c *Chain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m, args, err := c.method(msg.Data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.calls = append(c.calls, Call{Method: m.Name, From: msg.From, Args: args})
	h, ok := c.handlers[m.Name]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("contracttest: no handler for %s", m.Name)
	}
	outputs, err := h(msg.From, args)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Pack(outputs...)
}

func (c *Chain) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	m, _, err := c.method(msg.Data)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.estimateErr[m.Name]; err != nil {
		return 0, err
	}
	return 100_000, nil
}

func (c *Chain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var nonce uint64
	for _, s := range c.sent {
		if s.From == account {
			nonce++
		}
	}
	return nonce, nil
}

func (c *Chain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (c *Chain) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(100_000_000), nil
}

func (c *Chain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	sendErr := c.sendErr
	chainID := new(big.Int).Set(c.chainID)
	c.mu.Unlock()
	if sendErr != nil {
		return sendErr
	}

	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return fmt.Errorf("contracttest: recover sender: %w", err)
	}
	m, args, err := c.method(tx.Data())
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.head++
	c.sent = append(c.sent, SentTx{
		Hash:   tx.Hash(),
		From:   from,
		Method: m.Name,
		Args:   args,
		Value:  tx.Value(),
		Tx:     tx,
	})
	c.receipts[tx.Hash()] = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(c.head),
		GasUsed:     tx.Gas() * 100 / 120,
	}
	return nil
}

func (c *Chain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// FilterLogs 按地址、区块范围和 topic 过滤日志
func (c *Chain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []types.Log
	for _, l := range c.logs {
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, l.Address) {
			continue
		}
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if !matchTopics(q.Topics, l.Topics) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *Chain) Ping(context.Context) error { return nil }

func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed 是否已关闭
func (c *Chain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func containsAddress(list []common.Address, a common.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func matchTopics(filter [][]common.Hash, topics []common.Hash) bool {
	if len(filter) > len(topics) {
		return false
	}
	for i, alternatives := range filter {
		if len(alternatives) == 0 {
			continue
		}
		found := false
		for _, t := range alternatives {
			if t == topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var _ transport.Client = (*Chain)(nil)
