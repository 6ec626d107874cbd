package evm

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed semaphore.abi.json
var semaphoreABIJSON []byte

const (
	eventGroupCreated      = "GroupCreated"
	eventGroupAdminUpdated = "GroupAdminUpdated"
	eventMemberAdded       = "MemberAdded"
	eventMemberUpdated     = "MemberUpdated"
	eventMemberRemoved     = "MemberRemoved"
	eventProofVerified     = "ProofVerified"

	methodMerkleTreeRoot = "getMerkleTreeRoot"
	methodNumberOfLeaves = "getNumberOfMerkleTreeLeaves"
)

// SemaphoreABI parses the embedded Semaphore contract ABI.
func SemaphoreABI() (abi.ABI, error) {
	a, err := abi.JSON(bytes.NewReader(semaphoreABIJSON))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse semaphore abi: %w", err)
	}
	return a, nil
}

// decodeLog unpacks indexed topics and data of lg into a single map keyed by argument name.
func decodeLog(ev abi.Event, lg types.Log) (map[string]any, error) {
	if len(lg.Topics) == 0 || lg.Topics[0] != ev.ID {
		return nil, fmt.Errorf("log is not a %s event", ev.Name)
	}
	args := map[string]any{}
	indexed, nonIndexed := splitIndexed(ev.Inputs)
	if err := abi.ParseTopicsIntoMap(args, indexed, lg.Topics[1:]); err != nil {
		return nil, fmt.Errorf("parse %s topics: %w", ev.Name, err)
	}
	if err := nonIndexed.UnpackIntoMap(args, lg.Data); err != nil {
		return nil, fmt.Errorf("unpack %s data: %w", ev.Name, err)
	}
	return args, nil
}

func splitIndexed(args abi.Arguments) (indexed abi.Arguments, nonIndexed abi.Arguments) {
	for _, a := range args {
		if a.Indexed {
			indexed = append(indexed, a)
		} else {
			nonIndexed = append(nonIndexed, a)
		}
	}
	return indexed, nonIndexed
}
