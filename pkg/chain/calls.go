package chain

import (
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

func callMsg(to common.Address, data []byte) ethereum.CallMsg {
	addr := to
	return ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
}
