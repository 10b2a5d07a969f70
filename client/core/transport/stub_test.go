package transport

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var errConnRefused = errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")

// rpcError 模拟节点返回的 JSON-RPC 错误
type rpcError struct {
	code int
	msg  string
}

func (e *rpcError) Error() string  { return e.msg }
func (e *rpcError) ErrorCode() int { return e.code }

// stubClient 可编程的 Client 实现
type stubClient struct {
	chainID int64
	err     error
	sendErr error
	calls   atomic.Int32
	sent    atomic.Int32
	closed  atomic.Bool
}

func (s *stubClient) hit() error {
	s.calls.Add(1)
	return s.err
}

func (s *stubClient) ChainID(context.Context) (*big.Int, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return big.NewInt(s.chainID), nil
}

func (s *stubClient) BlockNumber(context.Context) (uint64, error) {
	if err := s.hit(); err != nil {
		return 0, err
	}
	return uint64(s.chainID) * 100, nil
}

func (s *stubClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (s *stubClient) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return []byte{byte(s.chainID)}, nil
}

func (s *stubClient) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, s.hit()
}

func (s *stubClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, s.hit()
}

func (s *stubClient) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1), s.hit()
}

func (s *stubClient) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), s.hit()
}

func (s *stubClient) SendTransaction(context.Context, *types.Transaction) error {
	s.sent.Add(1)
	if err := s.hit(); err != nil {
		return err
	}
	return s.sendErr
}

func (s *stubClient) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return nil, ethereum.NotFound
}

func (s *stubClient) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, s.hit()
}

func (s *stubClient) Ping(context.Context) error {
	return s.err
}

func (s *stubClient) Close() error {
	s.closed.Store(true)
	return nil
}
