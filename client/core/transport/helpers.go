package transport

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
)

// isEndpointFailure 判断错误是否由端点本身不可用导致
//
// 节点返回的 JSON-RPC 错误（revert、nonce 过低等）、NotFound 以及调用方取消都不是端点故障，
// 换一个端点也不会得到不同结果。
func isEndpointFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ethereum.NotFound) {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	var dataErr rpc.DataError
	return !errors.As(err, &dataErr)
}

// isAlreadyKnown 节点已经收到过同一笔交易
func isAlreadyKnown(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction")
}
