package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Field names mirror the ABI tuple components so abi.ConvertType can map
// unpacked values onto them.

// RawCommunity is a community tuple as returned by the contract.
type RawCommunity struct {
	Id         uint32
	Creator    common.Address
	ContentCID string
	Topics     []string
	PostCount  uint32
	IsActive   bool
}

// RawPost is a post tuple as returned by the contract.
type RawPost struct {
	Id           uint32
	Author       common.Address
	Title        string
	ContentCID   string
	ImageCID     string
	Topic        string
	CommunityId  uint32
	LikeCount    uint32
	CommentCount uint32
	Timestamp    *big.Int
	IsActive     bool
}

// RawComment is a comment tuple as returned by the contract.
type RawComment struct {
	Id        uint32
	Author    common.Address
	Content   string
	Timestamp *big.Int
	IsActive  bool
}
